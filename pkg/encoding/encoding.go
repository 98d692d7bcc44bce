package encoding

import (
	"crypto/hmac"
	"crypto/sha256"
	"fmt"
	"os"

	"github.com/denisbrodbeck/machineid"
	"github.com/loft-sh/log"
)

const (
	// hashingKey is mixed into the device id so the raw machine id never
	// leaves the host. It shouldn't be changed after the release.
	hashingKey = "Xq3vT9mWc7LpR2aZ8kNe"
)

const (
	DeviceIDLength = 40
)

// GetDeviceID returns a stable device id for this machine and user: the
// machine id and $HOME hashed with a fixed key, hex-encoded and cut to
// DeviceIDLength.
func GetDeviceID(log log.Logger) string {
	id, err := machineid.ID()
	if err != nil {
		id = "error"
		if log != nil {
			log.Debugf("Error retrieving machine id: %v", err)
		}
	}

	// $HOME distinguishes two users on the same machine
	home, err := os.UserHomeDir()
	if err != nil {
		home = "error"
		if log != nil {
			log.Debugf("Error retrieving home directory: %v", err)
		}
	}

	return hashDeviceID(id, home)
}

func hashDeviceID(machineID, home string) string {
	mac := hmac.New(sha256.New, []byte(machineID))
	mac.Write([]byte(hashingKey))
	mac.Write([]byte(home))
	return fmt.Sprintf("%x", mac.Sum(nil))[0:DeviceIDLength]
}
