//nolint:revive,nolintlint // Package name "common" is intentional for shared helpers.
package common

import (
	"context"
	"fmt"
	"os"
	"os/user"

	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"

	"github.com/oshokin/commute-alarm/internal/logger"
)

// ActorMetadataKey carries the calling actor in gRPC metadata.
const ActorMetadataKey = "x-commute-actor"

// Actor identifies who issued a control request.
type Actor struct {
	// Hostname is the machine the request came from.
	Hostname string
	// Username is the local account that issued it.
	Username string
}

// String renders the actor as user@host.
func (a Actor) String() string {
	return a.Username + "@" + a.Hostname
}

// DetectActor gathers host and user information for the audit trail.
func DetectActor() (Actor, error) {
	hostname, err := os.Hostname()
	if err != nil {
		return Actor{}, fmt.Errorf("hostname: %w", err)
	}

	currentUser, err := user.Current()
	if err != nil {
		return Actor{}, fmt.Errorf("current user: %w", err)
	}

	return Actor{
		Hostname: hostname,
		Username: currentUser.Username,
	}, nil
}

// ActorFromIncoming returns the actor recorded by the client, or "" when absent.
func ActorFromIncoming(ctx context.Context) string {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return ""
	}

	values := md.Get(ActorMetadataKey)
	if len(values) == 0 {
		return ""
	}

	return values[0]
}

// AuditInterceptor logs every call together with the actor that issued it.
func AuditInterceptor(
	ctx context.Context,
	req any,
	info *grpc.UnaryServerInfo,
	handler grpc.UnaryHandler,
) (any, error) {
	actor := ActorFromIncoming(ctx)
	if actor == "" {
		actor = "unknown"
	}

	ctx = logger.WithKV(logger.WithName(ctx, "grpc"), "actor", actor)

	resp, err := handler(ctx, req)
	if err != nil {
		logger.WarnKV(ctx, "Call failed", "method", info.FullMethod, "error", err)

		return resp, err
	}

	logger.DebugKV(ctx, "Call served", "method", info.FullMethod)

	return resp, nil
}
