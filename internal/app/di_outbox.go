package app

import (
	"fmt"

	"github.com/capsvc/selfservice/internal/kafka"
	outboxRepository "github.com/capsvc/selfservice/internal/outbox/repository"
	outboxUsecase "github.com/capsvc/selfservice/internal/outbox/usecase"
)

// OutboxRepository returns the outbox event repository for the configured
// database driver.
func (c *Container) OutboxRepository() (outboxUsecase.OutboxEventRepository, error) {
	c.outboxRepoInit.Do(func() {
		db, err := c.DB()
		if err != nil {
			c.initErrors["outboxRepo"] = err
			return
		}

		switch c.config.DBDriver {
		case "mysql":
			c.outboxRepo = outboxRepository.NewMySQLOutboxEventRepository(db)
		case "postgres":
			c.outboxRepo = outboxRepository.NewPostgreSQLOutboxEventRepository(db)
		default:
			c.initErrors["outboxRepo"] = fmt.Errorf("unsupported database driver: %s", c.config.DBDriver)
		}
	})
	if err, exists := c.initErrors["outboxRepo"]; exists {
		return nil, err
	}
	return c.outboxRepo, nil
}

// Producer returns the Kafka producer used by the outbox relay.
func (c *Container) Producer() (*kafka.Producer, error) {
	c.producerInit.Do(func() {
		brokers := c.config.KafkaBrokerList()
		if len(brokers) == 0 {
			c.initErrors["producer"] = fmt.Errorf("no kafka brokers configured")
			return
		}
		c.producer = kafka.NewProducer(brokers)
	})
	if err, exists := c.initErrors["producer"]; exists {
		return nil, err
	}
	return c.producer, nil
}

// Consumer returns the Kafka consumer that dispatches events to the policies.
func (c *Container) Consumer() (*kafka.Consumer, error) {
	c.consumerInit.Do(func() {
		registry, err := c.Registry()
		if err != nil {
			c.initErrors["consumer"] = err
			return
		}

		brokers := c.config.KafkaBrokerList()
		if len(brokers) == 0 {
			c.initErrors["consumer"] = fmt.Errorf("no kafka brokers configured")
			return
		}

		c.consumer = kafka.NewConsumer(
			brokers,
			c.config.KafkaTopic,
			c.config.KafkaConsumerGroup,
			registry,
			c.Logger(),
		)
	})
	if err, exists := c.initErrors["consumer"]; exists {
		return nil, err
	}
	return c.consumer, nil
}

// OutboxUseCase returns the outbox relay.
func (c *Container) OutboxUseCase() (outboxUsecase.UseCase, error) {
	c.outboxUseCaseInit.Do(func() {
		txManager, err := c.TxManager()
		if err != nil {
			c.initErrors["outboxUseCase"] = err
			return
		}

		outboxRepo, err := c.OutboxRepository()
		if err != nil {
			c.initErrors["outboxUseCase"] = err
			return
		}

		producer, err := c.Producer()
		if err != nil {
			c.initErrors["outboxUseCase"] = err
			return
		}

		c.outboxUseCase = outboxUsecase.NewOutboxUseCase(
			outboxUsecase.Config{
				Interval:        c.config.OutboxRelayInterval,
				BatchSize:       c.config.OutboxRelayBatchSize,
				MaxRetries:      c.config.OutboxRelayMaxRetries,
				PublishesPerSec: c.config.OutboxRelayPublishesPerSec,
			},
			txManager,
			outboxRepo,
			producer,
			c.Logger(),
		)
	})
	if err, exists := c.initErrors["outboxUseCase"]; exists {
		return nil, err
	}
	return c.outboxUseCase, nil
}
