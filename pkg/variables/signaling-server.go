package variables

import (
	"log"
	"os"
)

const (
	HTTP_PORT_DEFAULT = "8080"
	HTTP_PORT_NAME    = "HTTP_PORT"

	PUBLIC_DIR_DEFAULT = "./public"
	PUBLIC_DIR_NAME    = "PUBLIC_DIR"

	PEER_PATH_DEFAULT = "/peerjs"
	PEER_PATH_NAME    = "PEER_PATH"

	CORS_ORIGIN_DEFAULT = "*"
	CORS_ORIGIN_NAME    = "CORS_ORIGIN"

	// Room created at startup. Empty disables it.
	DEFAULT_ROOM_DEFAULT = ""
	DEFAULT_ROOM_NAME    = "DEFAULT_ROOM"
)

func Env(variableName, defaultValue string) string {
	if variable := os.Getenv(variableName); variable != "" {
		log.Printf("[%s]: %s", variableName, variable)
		return variable
	}
	log.Printf("[%s_DEFAULT]: %s", variableName, defaultValue)
	return defaultValue
}
