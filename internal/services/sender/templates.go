package services

import "html/template"

type emailData struct {
	Name string
	Link string
}

var verificationTemplate = template.Must(template.New("verification").Parse(`<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
  <h1 style="color: #333;">Email Verification</h1>
  <p>Hello {{.Name}},</p>
  <p>Thank you for registering! Please click the link below to verify your email address:</p>
  <a href="{{.Link}}" style="background-color: #007bff; color: white; padding: 10px 20px; text-decoration: none; border-radius: 5px; display: inline-block;">Verify Email</a>
  <p>If the button doesn't work, copy and paste this link into your browser:</p>
  <p>{{.Link}}</p>
  <p>This link will expire in 24 hours.</p>
</div>
`))

var passwordResetTemplate = template.Must(template.New("password_reset").Parse(`<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
  <h1 style="color: #333;">Password Reset</h1>
  <p>Hello {{.Name}},</p>
  <p>You requested a password reset. Please click the link below to reset your password:</p>
  <a href="{{.Link}}" style="background-color: #dc3545; color: white; padding: 10px 20px; text-decoration: none; border-radius: 5px; display: inline-block;">Reset Password</a>
  <p>If the button doesn't work, copy and paste this link into your browser:</p>
  <p>{{.Link}}</p>
  <p>This link will expire in 10 minutes.</p>
  <p>If you didn't request this password reset, please ignore this email.</p>
</div>
`))
