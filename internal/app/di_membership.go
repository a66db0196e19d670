package app

import (
	"fmt"

	capabilityRepository "github.com/capsvc/selfservice/internal/capability/repository"
	"github.com/capsvc/selfservice/internal/eventing"
	membershipRepository "github.com/capsvc/selfservice/internal/membership/repository"
	membershipUsecase "github.com/capsvc/selfservice/internal/membership/usecase"
)

// ApplicationRepository returns the membership application repository for the
// configured database driver.
func (c *Container) ApplicationRepository() (membershipUsecase.ApplicationRepository, error) {
	c.applicationRepoInit.Do(func() {
		db, err := c.DB()
		if err != nil {
			c.initErrors["applicationRepo"] = err
			return
		}

		switch c.config.DBDriver {
		case "mysql":
			c.applicationRepo = membershipRepository.NewMySQLApplicationRepository(db)
		case "postgres":
			c.applicationRepo = membershipRepository.NewPostgreSQLApplicationRepository(db)
		default:
			c.initErrors["applicationRepo"] = fmt.Errorf("unsupported database driver: %s", c.config.DBDriver)
		}
	})
	if err, exists := c.initErrors["applicationRepo"]; exists {
		return nil, err
	}
	return c.applicationRepo, nil
}

// MembershipRepository returns the membership repository for the configured
// database driver.
func (c *Container) MembershipRepository() (membershipUsecase.MembershipRepository, error) {
	c.membershipRepoInit.Do(func() {
		db, err := c.DB()
		if err != nil {
			c.initErrors["membershipRepo"] = err
			return
		}

		switch c.config.DBDriver {
		case "mysql":
			c.membershipRepo = membershipRepository.NewMySQLMembershipRepository(db)
		case "postgres":
			c.membershipRepo = membershipRepository.NewPostgreSQLMembershipRepository(db)
		default:
			c.initErrors["membershipRepo"] = fmt.Errorf("unsupported database driver: %s", c.config.DBDriver)
		}
	})
	if err, exists := c.initErrors["membershipRepo"]; exists {
		return nil, err
	}
	return c.membershipRepo, nil
}

// CapabilityRepository returns the capability repository for the configured
// database driver.
func (c *Container) CapabilityRepository() (membershipUsecase.CapabilityRepository, error) {
	c.capabilityRepoInit.Do(func() {
		db, err := c.DB()
		if err != nil {
			c.initErrors["capabilityRepo"] = err
			return
		}

		switch c.config.DBDriver {
		case "mysql":
			c.capabilityRepo = capabilityRepository.NewMySQLCapabilityRepository(db)
		case "postgres":
			c.capabilityRepo = capabilityRepository.NewPostgreSQLCapabilityRepository(db)
		default:
			c.initErrors["capabilityRepo"] = fmt.Errorf("unsupported database driver: %s", c.config.DBDriver)
		}
	})
	if err, exists := c.initErrors["capabilityRepo"]; exists {
		return nil, err
	}
	return c.capabilityRepo, nil
}

// Transactor returns the unit-of-work wrapper that turns drained domain events
// into outbox rows.
func (c *Container) Transactor() (*eventing.Transactor, error) {
	c.transactorInit.Do(func() {
		txManager, err := c.TxManager()
		if err != nil {
			c.initErrors["transactor"] = err
			return
		}

		outboxRepo, err := c.OutboxRepository()
		if err != nil {
			c.initErrors["transactor"] = err
			return
		}

		c.transactor = eventing.NewTransactor(txManager, outboxRepo, c.config.KafkaTopic)
	})
	if err, exists := c.initErrors["transactor"]; exists {
		return nil, err
	}
	return c.transactor, nil
}

// ApplicationUseCase returns the membership application use case, decorated
// with metrics recording.
func (c *Container) ApplicationUseCase() (membershipUsecase.ApplicationUseCase, error) {
	c.applicationUseCaseInit.Do(func() {
		transactor, err := c.Transactor()
		if err != nil {
			c.initErrors["applicationUseCase"] = err
			return
		}

		applicationRepo, err := c.ApplicationRepository()
		if err != nil {
			c.initErrors["applicationUseCase"] = err
			return
		}

		membershipRepo, err := c.MembershipRepository()
		if err != nil {
			c.initErrors["applicationUseCase"] = err
			return
		}

		capabilityRepo, err := c.CapabilityRepository()
		if err != nil {
			c.initErrors["applicationUseCase"] = err
			return
		}

		businessMetrics, err := c.BusinessMetrics()
		if err != nil {
			c.initErrors["applicationUseCase"] = err
			return
		}

		useCase := membershipUsecase.NewApplicationUseCase(
			membershipUsecase.Config{
				ApplicationExpiry: c.config.ApplicationExpiry,
				SweepBatchSize:    c.config.SweeperBatchSize,
			},
			transactor,
			applicationRepo,
			membershipRepo,
			capabilityRepo,
			c.Logger(),
		)

		c.applicationUseCase = membershipUsecase.NewApplicationUseCaseWithMetrics(useCase, businessMetrics)
	})
	if err, exists := c.initErrors["applicationUseCase"]; exists {
		return nil, err
	}
	return c.applicationUseCase, nil
}

// Registry returns the event-handler registry with all policies registered.
func (c *Container) Registry() (*eventing.Registry, error) {
	c.registryInit.Do(func() {
		useCase, err := c.ApplicationUseCase()
		if err != nil {
			c.initErrors["registry"] = err
			return
		}

		registry := eventing.NewRegistry()
		policies := membershipUsecase.NewPolicies(useCase, c.Logger())
		if err := policies.Register(registry); err != nil {
			c.initErrors["registry"] = fmt.Errorf("failed to register event policies: %w", err)
			return
		}
		c.registry = registry
	})
	if err, exists := c.initErrors["registry"]; exists {
		return nil, err
	}
	return c.registry, nil
}

// Sweeper returns the application expiry sweeper.
func (c *Container) Sweeper() (*membershipUsecase.Sweeper, error) {
	c.sweeperInit.Do(func() {
		useCase, err := c.ApplicationUseCase()
		if err != nil {
			c.initErrors["sweeper"] = err
			return
		}

		c.sweeper = membershipUsecase.NewSweeper(
			membershipUsecase.SweeperConfig{Interval: c.config.SweeperInterval},
			useCase,
			c.Logger(),
		)
	})
	if err, exists := c.initErrors["sweeper"]; exists {
		return nil, err
	}
	return c.sweeper, nil
}
