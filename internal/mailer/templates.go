package mailer

import "html/template"

const layoutStyle = `
      body { font-family: Arial, sans-serif; line-height: 1.6; color: #333333; max-width: 600px; margin: 0 auto; padding: 20px; background-color: #f9f9f9; }
      .email-container { background-color: #ffffff; padding: 30px; border-radius: 10px; box-shadow: 0 2px 4px rgba(0, 0, 0, 0.1); }
      .header { border-bottom: 2px solid #2563eb; padding-bottom: 15px; margin-bottom: 20px; }
      .message-box { background-color: #f8fafc; border-left: 4px solid #2563eb; padding: 15px; margin: 15px 0; border-radius: 4px; }
      .footer { margin-top: 30px; padding-top: 15px; border-top: 1px solid #e2e8f0; font-size: 0.9em; color: #64748b; }
      .label { font-weight: 600; color: #1e40af; }`

var notificationTmpl = template.Must(template.New("notification").Parse(`<!DOCTYPE html>
<html lang="en">
  <head>
    <meta charset="UTF-8">
    <title>New Contact Form Submission</title>
    <style>` + layoutStyle + `</style>
  </head>
  <body>
    <div class="email-container">
      <div class="header"><h2 style="color: #1e40af; margin: 0;">New Contact Form Submission</h2></div>
      <p><span class="label">Name:</span> {{.Name}}</p>
      <p><span class="label">Email:</span> {{.Email}}</p>
      <div class="message-box">
        <p class="label">Message:</p>
        <p style="white-space: pre-wrap;">{{.Message}}</p>
      </div>
      <div class="footer"><p>This message was sent through your portfolio contact form.</p></div>
    </div>
  </body>
</html>`))

var acknowledgementTmpl = template.Must(template.New("acknowledgement").Parse(`<!DOCTYPE html>
<html lang="en">
  <head>
    <meta charset="UTF-8">
    <title>Thank You for Your Message</title>
    <style>` + layoutStyle + `</style>
  </head>
  <body>
    <div class="email-container">
      <div class="header"><h2 style="color: #1e40af; margin: 0;">Thank You for Contacting Me</h2></div>
      <p>Dear {{.Contact.Name}},</p>
      <p>Thank you for reaching out through my portfolio website. I have received your message and will get back to you as soon as possible.</p>
      <div class="message-box">
        <p style="font-weight: 600;">Your Message:</p>
        <p style="white-space: pre-wrap;">{{.Contact.Message}}</p>
      </div>
      <p>Best regards,<br><strong>{{.Owner}}</strong></p>
      <div class="footer">
        <p>This is an automated response. Please do not reply directly to this email.</p>
        {{- if .Links}}
        <p>Connect with me:
          {{- range $i, $l := .Links}}{{if $i}} |{{end}} <a href="{{$l.URL}}">{{$l.Label}}</a>{{end}}
        </p>
        {{- end}}
      </div>
    </div>
  </body>
</html>`))

const acknowledgementText = `Dear %s,

Thank you for reaching out through my portfolio website. I have received your message and will get back to you as soon as possible.

Your message:
%s

Best regards,
%s
`
