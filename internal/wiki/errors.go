package wiki

import (
	"errors"
	"fmt"
)

// MalformedPluginInfoError reports a plugin whose body is not a valid
// plugin bundle. It aborts the whole ReadPluginInfo pass.
type MalformedPluginInfoError struct {
	Title string
	Err   error
}

func (e *MalformedPluginInfoError) Error() string {
	return fmt.Sprintf("malformed plugin info in %q: %v", e.Title, e.Err)
}

func (e *MalformedPluginInfoError) Unwrap() error {
	return e.Err
}

// IsMalformedPluginInfo reports whether err is, or wraps, a
// MalformedPluginInfoError.
func IsMalformedPluginInfo(err error) bool {
	var me *MalformedPluginInfoError
	return errors.As(err, &me)
}
