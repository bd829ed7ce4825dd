// cmd/main.go
package main

import (
	"maison-auth-api/app"
)

// @title           Maison Auth API
// @version         1.0
// @description     Credential, token and session lifecycle for the Maison condominium platform.

// @contact.name   API Support
// @contact.email  support@example.com

// @license.name   MIT
// @license.url    https://opensource.org/licenses/MIT

// @host      localhost:8080
// @BasePath  /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	app.Run()
}
