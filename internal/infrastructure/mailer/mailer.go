// Package mailer sends the welcome mail after registration.
package mailer

import (
	"fmt"
)

const welcomeSubject = "Welcome to EventHub"

func welcomeBodies(toEmail string) (text, html string) {
	text = fmt.Sprintf("Hi %s,\n\nYour EventHub account is ready. Sign in to browse and join campus events.", toEmail)
	html = fmt.Sprintf(`<h2>Welcome to EventHub!</h2>
<p>Hi %s,</p>
<p>Your account is ready. Sign in to browse and join campus events.</p>`, toEmail)
	return text, html
}
