package config

import (
	"os"
	"strings"
)

// RequireWebhookSecret refuses unsigned provider webhooks even when no
// MOMO_WEBHOOK_SECRET is configured. Unsigned webhooks are a deliberate
// soft-fail for local/staging environments; production deployments should
// set this.
//
// Set via env:
// - REQUIRE_WEBHOOK_SECRET=true
func RequireWebhookSecret() bool {
	v := strings.ToLower(strings.TrimSpace(os.Getenv("REQUIRE_WEBHOOK_SECRET")))
	return v == "1" || v == "true" || v == "yes" || v == "y"
}

// SyncViaPubSub queues background sync runs through Pub/Sub instead of
// running them inline in the trigger request.
//
// Set via env:
// - SYNC_VIA_PUBSUB=true
func SyncViaPubSub() bool {
	v := strings.ToLower(strings.TrimSpace(os.Getenv("SYNC_VIA_PUBSUB")))
	return v == "1" || v == "true" || v == "yes" || v == "y"
}

// EnvBoolDefault reads a boolean env var with a fallback.
func EnvBoolDefault(key string, def bool) bool {
	val := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	switch val {
	case "true", "1", "yes", "y", "on":
		return true
	case "false", "0", "no", "n", "off":
		return false
	default:
		return def
	}
}
