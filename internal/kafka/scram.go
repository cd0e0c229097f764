package kafka

import (
	"github.com/IBM/sarama"
	"github.com/xdg-go/scram"
)

// scramMechanism pairs a sarama SASL mechanism with its SCRAM hash.
type scramMechanism struct {
	mechanism sarama.SASLMechanism
	hash      scram.HashGeneratorFcn
}

// scramMechanisms maps kafka.sasl_mechanism values to SCRAM settings.
var scramMechanisms = map[string]scramMechanism{
	"SCRAM-SHA-256": {mechanism: sarama.SASLTypeSCRAMSHA256, hash: scram.SHA256},
	"SCRAM-SHA-512": {mechanism: sarama.SASLTypeSCRAMSHA512, hash: scram.SHA512},
}

// scramClient adapts an xdg-go/scram conversation to sarama.SCRAMClient.
type scramClient struct {
	hash         scram.HashGeneratorFcn
	conversation *scram.ClientConversation
}

func newSCRAMClient(hash scram.HashGeneratorFcn) *scramClient {
	return &scramClient{hash: hash}
}

// Begin starts a new conversation for the given credentials.
func (c *scramClient) Begin(userName, password, authzID string) error {
	client, err := c.hash.NewClient(userName, password, authzID)
	if err != nil {
		return err
	}
	c.conversation = client.NewConversation()
	return nil
}

func (c *scramClient) Step(challenge string) (string, error) {
	return c.conversation.Step(challenge)
}

func (c *scramClient) Done() bool {
	return c.conversation.Done()
}

var _ sarama.SCRAMClient = (*scramClient)(nil)
