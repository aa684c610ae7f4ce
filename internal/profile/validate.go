package profile

import (
	"errors"
	"fmt"
	"regexp"
)

// Profile names double as directory names under ~/.hubtalk/profiles, so
// they stay lowercase and shell-safe.
const maxNameLen = 64

var nameRegexp = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]*$`)

// ValidateName rejects names that cannot serve as a profile directory.
func ValidateName(name string) error {
	if name == "" {
		return errors.New("profile name is empty")
	}
	if len(name) > maxNameLen {
		return fmt.Errorf("profile name %q is longer than %d characters", name, maxNameLen)
	}
	if !nameRegexp.MatchString(name) {
		return fmt.Errorf("profile name %q: use lowercase letters, digits, '-' or '_', starting with a letter or digit", name)
	}
	return nil
}
