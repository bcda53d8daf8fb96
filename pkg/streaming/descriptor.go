package streaming

import (
	"encoding/json"
	"os"
)

// descriptor is the connection-descriptor file contract (spec §6): a
// well-known JSON file UI clients read to discover the running server.
type descriptor struct {
	Host      string `json:"host"`
	Port      int    `json:"port"`
	AuthToken string `json:"auth_token"`
	Protocol  string `json:"protocol"`
	Version   int    `json:"version"`
}

const descriptorVersion = 1

// writeDescriptor persists the resolved endpoint and auth token to path
// with owner-only permissions (spec §4.2 "Lifecycle", §6).
func writeDescriptor(path, host string, port int, authToken string) error {
	d := descriptor{Host: host, Port: port, AuthToken: authToken, Protocol: "ws", Version: descriptorVersion}
	data, err := json.MarshalIndent(d, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

// removeDescriptor deletes the descriptor file on server stop. A missing
// file is not an error.
func removeDescriptor(path string) error {
	if path == "" {
		return nil
	}
	err := os.Remove(path)
	if os.IsNotExist(err) {
		return nil
	}
	return err
}
