package context

import "context"

type ContextKey string

var (
	RequestIDKey = ContextKey("X-Request-Id")
	MethodKey    = ContextKey("X-Method")
	RouteKey     = ContextKey("X-Route")
	RemoteIPKey  = ContextKey("X-Remote-Ip")
	RunIDKey     = ContextKey("X-Migration-Run-Id")
	EntityKey    = ContextKey("X-Migration-Entity")
)

func getString(ctx context.Context, key ContextKey) string {
	value, ok := ctx.Value(key).(string)
	if !ok {
		return ""
	}
	return value
}

func SetRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, RequestIDKey, requestID)
}

func GetRequestID(ctx context.Context) string {
	return getString(ctx, RequestIDKey)
}

func SetMethod(ctx context.Context, method string) context.Context {
	return context.WithValue(ctx, MethodKey, method)
}

func GetMethod(ctx context.Context) string {
	return getString(ctx, MethodKey)
}

func SetRoute(ctx context.Context, route string) context.Context {
	return context.WithValue(ctx, RouteKey, route)
}

func GetRoute(ctx context.Context) string {
	return getString(ctx, RouteKey)
}

func SetRemoteIP(ctx context.Context, remoteIP string) context.Context {
	return context.WithValue(ctx, RemoteIPKey, remoteIP)
}

func GetRemoteIP(ctx context.Context) string {
	return getString(ctx, RemoteIPKey)
}

// SetRunID tags ctx with the migration run it belongs to.
func SetRunID(ctx context.Context, runID string) context.Context {
	return context.WithValue(ctx, RunIDKey, runID)
}

func GetRunID(ctx context.Context) string {
	return getString(ctx, RunIDKey)
}

// SetEntity tags ctx with the entity type a driver is migrating.
func SetEntity(ctx context.Context, entity string) context.Context {
	return context.WithValue(ctx, EntityKey, entity)
}

func GetEntity(ctx context.Context) string {
	return getString(ctx, EntityKey)
}

// LogFields returns the correlation fields carried by ctx, skipping empty ones.
func LogFields(ctx context.Context) map[string]any {
	fields := map[string]any{}
	for name, value := range map[string]string{
		"request_id": GetRequestID(ctx),
		"run_id":     GetRunID(ctx),
		"entity":     GetEntity(ctx),
		"method":     GetMethod(ctx),
		"route":      GetRoute(ctx),
		"remote_ip":  GetRemoteIP(ctx),
	} {
		if value != "" {
			fields[name] = value
		}
	}
	return fields
}
