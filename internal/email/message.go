package email

import "fmt"

const resetSubject = "Reset your FitLetter password"

// passwordResetBodies returns the text and HTML bodies of a reset email.
func passwordResetBodies(link string) (text, html string) {
	text = fmt.Sprintf(
		"Someone asked to reset the password for your FitLetter account.\n\n"+
			"Open the link below to choose a new password:\n\n%s\n\n"+
			"This link expires in 30 minutes and can be used once. If you did not ask for this, ignore this email.",
		link,
	)
	html = fmt.Sprintf(
		`<p>Someone asked to reset the password for your FitLetter account.</p>`+
			`<p><a href="%s">Choose a new password</a></p>`+
			`<p>This link expires in 30 minutes and can be used once. If you did not ask for this, ignore this email.</p>`,
		link,
	)
	return text, html
}
