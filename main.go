package main

import (
	"context"
	"time"

	"github.com/shandysiswandi/passwordless/internal/app"
)

// @title           Passwordless API
// @version         1.0
// @description     Passwordless provides email one-time-code sign in, cookie sessions and profile management APIs.
// @contact.name    Contact Support
// @contact.email   support@passwordless.local
// @license.name    MIT
// @license.url     https://mit-license.org/
// @server          http://localhost:8080
// @securityDefinitions.apikey  SessionCookie
// @in cookie
// @name connect.sid
// @description Signed session cookie issued by POST /auth/verify-otp.
func main() {
	application := app.New()    // Initialize the application
	wait := application.Start() // Start the application and wait for the termination signal
	<-wait                      // Wait for the application to receive a termination signal
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	application.Stop(ctx) // Stop the application gracefully
}
