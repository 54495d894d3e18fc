package messaging

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/messaging/azservicebus"
	"github.com/rs/zerolog/log"

	"example.com/backstage/services/ledger/config"
	"example.com/backstage/services/ledger/metrics"
)

// AzureClient consumes event envelopes from an Azure Service Bus queue.
// Messages are received in PeekLock mode: a message only leaves the queue
// when a worker completes it, abandoning returns it for redelivery, and the
// broker routes messages past their delivery limit to the dead-letter queue.
type AzureClient struct {
	client *azservicebus.Client
}

// NewAzureClient creates a new Service Bus client
func NewAzureClient(cfg config.Config) (*AzureClient, error) {
	client, err := azservicebus.NewClientFromConnectionString(cfg.QueueConnStr, nil)
	if err != nil {
		return nil, err
	}

	return &AzureClient{client: client}, nil
}

// StartConsumers receives from the queue and fans messages out to a fixed
// pool of workers until the context is cancelled. Each worker settles its
// own messages, so one slow resource never blocks completion of the rest of
// a batch.
func (a *AzureClient) StartConsumers(ctx context.Context, queueName string, processor MessageProcessor, workerCount int) error {
	log.Info().Msgf("Starting %d consumers for queue %s", workerCount, queueName)

	receiver, err := a.client.NewReceiverForQueue(queueName, &azservicebus.ReceiverOptions{
		ReceiveMode: azservicebus.ReceiveModePeekLock,
	})
	if err != nil {
		return err
	}
	defer func() {
		if err := receiver.Close(context.Background()); err != nil {
			log.Error().Err(err).Msg("Error closing receiver")
		}
	}()

	messages := make(chan *azservicebus.ReceivedMessage)

	var wg sync.WaitGroup
	for i := 0; i < workerCount; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			a.runWorker(ctx, receiver, processor, messages)
		}()
	}

	for {
		select {
		case <-ctx.Done():
			close(messages)
			wg.Wait()
			return nil
		default:
		}

		batch, err := receiver.ReceiveMessages(ctx, workerCount, nil)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				close(messages)
				wg.Wait()
				return nil
			}
			log.Error().Err(err).Msgf("Error receiving messages from queue %s", queueName)
			time.Sleep(2 * time.Second)
			continue
		}

		for _, message := range batch {
			messages <- message
		}
	}
}

func (a *AzureClient) runWorker(ctx context.Context, receiver *azservicebus.Receiver, processor MessageProcessor, messages <-chan *azservicebus.ReceivedMessage) {
	for message := range messages {
		if err := processor.ProcessMessage(ctx, message); err != nil {
			log.Error().Err(err).Msgf("Error processing message '%s'", message.MessageID)
			metrics.MessagesAbandoned.Inc()
			// Return the message to the queue for redelivery
			if err := receiver.AbandonMessage(context.Background(), message, nil); err != nil {
				log.Error().Err(err).Msgf("(AbandonMessage) err: %v", err)
			}
			continue
		}

		if err := receiver.CompleteMessage(context.Background(), message, nil); err != nil {
			log.Error().Err(err).Msgf("(CompleteMessage) err: %v", err)
		}
	}
}
