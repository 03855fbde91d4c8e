package accountsync

import (
	"context"
	"encoding/json"
	"io"
	"os"
	"strings"

	"cloud.google.com/go/pubsub"
	"github.com/adepafin/adepa_backend/config"
	"github.com/gin-gonic/gin"
)

func syncTopicName() string {
	topicName := strings.TrimSpace(os.Getenv("ACCOUNT_SYNC_TOPIC"))
	if topicName == "" {
		topicName = "account-sync"
	}
	return topicName
}

// PublishSyncRun queues one background run through Pub/Sub so the
// trigger request returns immediately.
func PublishSyncRun(ctx context.Context, payload SyncPubSubPayload) error {
	client, err := config.GetClient(ctx)
	if err != nil {
		return err
	}

	topicName := syncTopicName()
	topic := client.Topic(topicName)
	if config.EnvBoolDefault("ACCOUNT_SYNC_CREATE_TOPIC", false) {
		topic, err = config.CreateTopicIfNotExists(client, topicName)
		if err != nil {
			return err
		}
	}

	data, _ := json.Marshal(payload)
	res := topic.Publish(ctx, &pubsub.Message{Data: data})
	_, err = res.Get(ctx)
	return err
}

// PubSubPushHandler consumes the push subscription. It always returns
// 204 so Pub/Sub does not redeliver payloads that cannot be processed.
func PubSubPushHandler(orch *Orchestrator) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !config.EnvBoolDefault("ENABLE_SYNC_PUBSUB_PUSH_ENDPOINT", true) {
			c.Status(204)
			return
		}

		body, err := io.ReadAll(c.Request.Body)
		if err != nil {
			c.Status(204)
			return
		}

		var envelope PubSubPushEnvelope
		if err := json.Unmarshal(body, &envelope); err != nil {
			c.Status(204)
			return
		}

		var payload SyncPubSubPayload
		if err := json.Unmarshal(envelope.Message.Data, &payload); err != nil {
			c.Status(204)
			return
		}

		if _, err := orch.RunBackgroundSync(c.Request.Context(), TriggerSyncRequest{
			ForceSync:             payload.ForceSync,
			MaxConcurrentAccounts: payload.MaxConcurrentAccounts,
		}); err != nil {
			config.LogError(config.GetLogger(), "accountsync", "PubSubPushHandler", "run background sync", nil, err)
		}
		c.Status(204)
	}
}
