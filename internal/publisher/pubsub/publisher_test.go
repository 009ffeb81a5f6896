package pubsub

import (
	"context"
	"encoding/json"
	"testing"

	pubsub "cloud.google.com/go/pubsub/v2"
	"cloud.google.com/go/pubsub/v2/apiv1/pubsubpb"
	"cloud.google.com/go/pubsub/v2/pstest"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/JakeFAU/weblink-inspector/internal/weblink"
)

func newTestClient(t *testing.T) (*pubsub.Client, *pstest.Server) {
	t.Helper()

	srv := pstest.NewServer()
	t.Cleanup(func() { _ = srv.Close() })

	ctx := context.Background()
	client, err := pubsub.NewClient(ctx, "test-project",
		option.WithEndpoint(srv.Addr),
		option.WithoutAuthentication(),
		option.WithGRPCDialOption(grpc.WithTransportCredentials(insecure.NewCredentials())),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	_, err = client.TopicAdminClient.CreateTopic(ctx, &pubsubpb.Topic{Name: "projects/test-project/topics/weblinks"})
	require.NoError(t, err)
	return client, srv
}

func TestPublishNotification(t *testing.T) {
	t.Parallel()

	client, srv := newTestClient(t)
	pub := New(client, "weblinks")
	t.Cleanup(pub.Stop)

	id, err := pub.Publish(context.Background(), "", weblink.Notification{RecordID: "r1", URL: "http://a.test/", Version: 2})
	require.NoError(t, err)
	require.NotEmpty(t, id)

	msgs := srv.Messages()
	require.Len(t, msgs, 1)
	require.Equal(t, "http://a.test/", msgs[0].Attributes["url"])
	require.Equal(t, "2", msgs[0].Attributes["version"])

	var got weblink.Notification
	require.NoError(t, json.Unmarshal(msgs[0].Data, &got))
	require.Equal(t, "r1", got.RecordID)
}

func TestPublishRequiresClientAndTopic(t *testing.T) {
	t.Parallel()

	_, err := New(nil, "weblinks").Publish(context.Background(), "", "x")
	require.ErrorContains(t, err, "client is not configured")

	client, _ := newTestClient(t)
	_, err = New(client, "").Publish(context.Background(), "", "x")
	require.ErrorContains(t, err, "topic is not configured")
}

func TestPubsubCarrier(t *testing.T) {
	t.Parallel()

	carrier := &pubsubCarrier{attrs: map[string]string{}}
	carrier.Set("traceparent", "abc")
	require.Equal(t, "abc", carrier.Get("traceparent"))
	require.Equal(t, []string{"traceparent"}, carrier.Keys())
}
