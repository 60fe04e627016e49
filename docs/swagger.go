package docs

// @title           Ride Guardian API
// @version         1.0
// @description     Ride safety guardian: pre-booking risk quotes, live ride monitoring, voice check-ins, emergency actions and post-ride safety reports.

// @contact.name   API Support

// @license.name  Apache 2.0
// @license.url   http://www.apache.org/licenses/LICENSE-2.0.html

// @host      localhost:5000
// @BasePath  /
