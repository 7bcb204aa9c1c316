package main

import (
	"fmt"
	"log"
	"os"

	"github.com/hashicorp/consul/api"
)

// resolveServiceURL resolves a collaborator's base URL through Consul when
// CONSUL_HTTP_ADDR is set, falling back to the env var otherwise (and on any
// discovery failure, so a missing Consul never takes the orchestrator down).
func resolveServiceURL(serviceName, envKey, fallback string) string {
	if os.Getenv("CONSUL_HTTP_ADDR") == "" {
		return getEnv(envKey, fallback)
	}

	client, err := api.NewClient(api.DefaultConfig())
	if err != nil {
		log.Printf("⚠️  Failed to create Consul client: %v", err)
		return getEnv(envKey, fallback)
	}

	services, _, err := client.Health().Service(serviceName, "", true, nil)
	if err != nil {
		log.Printf("⚠️  Consul lookup for %s failed: %v", serviceName, err)
		return getEnv(envKey, fallback)
	}
	if len(services) == 0 {
		log.Printf("⚠️  No healthy instances of %s in Consul", serviceName)
		return getEnv(envKey, fallback)
	}

	service := services[0].Service
	address := service.Address
	if address == "" {
		address = "localhost"
	}

	url := fmt.Sprintf("http://%s:%d", address, service.Port)
	log.Printf("✅ Resolved %s via Consul: %s", serviceName, url)
	return url
}
