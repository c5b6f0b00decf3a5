// Package template renders the HTML bodies of outbound emails.
//
// Supported variables:
//
//	{{otp.code}}, {{otp.ttl_minutes}}
package template

import (
	"fmt"
	"strings"
	"time"
)

const forgotPasswordBody = `<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1">
    <title>Password Reset</title>
    <style>
        body { font-family: Arial, sans-serif; background-color: #f4f4f4; margin: 0; padding: 0; }
        .container { max-width: 600px; margin: 20px auto; background: #ffffff; padding: 20px;
                     border-radius: 8px; box-shadow: 0px 0px 10px rgba(0, 0, 0, 0.1); text-align: center; }
        h2 { color: #333; }
        p { font-size: 16px; color: #555; }
        .otp { font-size: 24px; font-weight: bold; color: #007bff; margin: 20px 0; }
        .footer { margin-top: 20px; font-size: 12px; color: #888; }
    </style>
</head>
<body>
    <div class="container">
        <h2>Password Reset</h2>
        <p>Your One-Time Password (OTP) for password reset is:</p>
        <div class="otp">{{otp.code}}</div>
        <p>Enter this OTP to reset your password. This code is valid for {{otp.ttl_minutes}} minutes.</p>
        <p class="footer">If you didn't request this, please ignore this email.</p>
    </div>
</body>
</html>`

// RenderForgotPassword substitutes the plaintext OTP into the reset email.
// Only the plaintext code is ever mailed; the stored copy is a hash.
func RenderForgotPassword(otp string, ttl time.Duration) string {
	return strings.NewReplacer(
		"{{otp.code}}", otp,
		"{{otp.ttl_minutes}}", fmt.Sprintf("%d", int(ttl.Minutes())),
	).Replace(forgotPasswordBody)
}
