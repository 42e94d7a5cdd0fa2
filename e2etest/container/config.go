//go:build e2e

package container

import (
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"
)

// ImageConfig contains the broker image and credentials needed for running
// e2e tests. Mongo is started by testutil.
type ImageConfig struct {
	RabbitMQRepository string
	RabbitMQVersion    string
	User               string
	Password           string
}

const (
	dockerRabbitMQRepository = "rabbitmq"
	dockerRabbitMQVersionTag = "3.13-alpine"
)

// NewImageConfig returns ImageConfig needed for running e2e test.
func NewImageConfig() ImageConfig {
	return ImageConfig{
		RabbitMQRepository: dockerRabbitMQRepository,
		RabbitMQVersion:    dockerRabbitMQVersionTag,
		User:               "user",
		Password:           "password",
	}
}

// RunRabbitMQ starts a broker and waits until it accepts connections. It
// returns the host:port the broker listens on and a cleanup function.
func RunRabbitMQ(cfg ImageConfig) (string, func(), error) {
	pool, err := dockertest.NewPool("")
	if err != nil {
		return "", nil, err
	}

	resource, err := pool.RunWithOptions(&dockertest.RunOptions{
		Repository: cfg.RabbitMQRepository,
		Tag:        cfg.RabbitMQVersion,
		Env: []string{
			"RABBITMQ_DEFAULT_USER=" + cfg.User,
			"RABBITMQ_DEFAULT_PASS=" + cfg.Password,
		},
	}, func(config *docker.HostConfig) {
		config.AutoRemove = true
		config.RestartPolicy = docker.RestartPolicy{
			Name: "no",
		}
	})
	if err != nil {
		return "", nil, err
	}

	cleanup := func() {
		_ = pool.Purge(resource)
	}

	hostPort := fmt.Sprintf("localhost:%s", resource.GetPort("5672/tcp"))
	err = pool.Retry(func() error {
		conn, err := amqp.Dial(fmt.Sprintf("amqp://%s:%s@%s", cfg.User, cfg.Password, hostPort))
		if err != nil {
			return err
		}
		return conn.Close()
	})
	if err != nil {
		cleanup()
		return "", nil, fmt.Errorf("rabbitmq did not come up: %w", err)
	}

	return hostPort, cleanup, nil
}
