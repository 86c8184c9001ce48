package errors

import "fmt"

// Wrap prefixes err with msg and keeps it matchable with errors.Is.
// A nil err stays nil, so the call can wrap a return value directly:
//
//	return errors.Wrap(s.remote.UpsertTask(ctx, userID, t), "upsert task")
func Wrap(err error, msg string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", msg, err)
}

// Wrapf is Wrap with a formatted message.
func Wrapf(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}
