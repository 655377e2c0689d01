package logging

import "context"

type debugModeKey struct{}

// EnableDebugMode marks ctx so that CDebugw logs through it at any logger level. Entries logged
// this way carry name under the "debug" key, "debug" itself when name is empty.
func EnableDebugMode(ctx context.Context, name string) context.Context {
	if name == "" {
		name = "debug"
	}
	return context.WithValue(ctx, debugModeKey{}, name)
}

// IsDebugMode reports whether ctx was marked with EnableDebugMode.
func IsDebugMode(ctx context.Context) bool {
	return debugName(ctx) != ""
}

func debugName(ctx context.Context) string {
	name, _ := ctx.Value(debugModeKey{}).(string)
	return name
}
