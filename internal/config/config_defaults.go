package config

import (
	"time"

	"github.com/spf13/viper"
)

// setDefaults sets the default configuration values
func setDefaults(v *viper.Viper) {
	// AI Configuration - Global defaults
	v.SetDefault("ai.provider", "gemini")
	v.SetDefault("ai.model", "gemini-2.0-flash")
	v.SetDefault("ai.timeout", 60*time.Second)
	v.SetDefault("ai.apiKey", "")
	v.SetDefault("ai.maxRetries", 3)
	v.SetDefault("ai.temperature", 0.7)

	// AI Configuration - Extract operation defaults
	v.SetDefault("ai.extract.provider", "gemini")
	v.SetDefault("ai.extract.model", "")
	v.SetDefault("ai.extract.timeout", 90*time.Second) // Full-document extraction is the slowest call
	v.SetDefault("ai.extract.apiKey", "")
	v.SetDefault("ai.extract.maxRetries", 2)
	v.SetDefault("ai.extract.temperature", 0.1) // Very low temperature for factual extraction
	v.SetDefault("ai.extract.systemPrompt", "")
	v.SetDefault("ai.extract.systemPromptFile", "")

	// AI Configuration - Recommend operation defaults
	v.SetDefault("ai.recommend.provider", "gemini")
	v.SetDefault("ai.recommend.model", "")
	v.SetDefault("ai.recommend.timeout", 60*time.Second)
	v.SetDefault("ai.recommend.apiKey", "")
	v.SetDefault("ai.recommend.maxRetries", 2)
	v.SetDefault("ai.recommend.temperature", 0.4) // Some variety in suggestions
	v.SetDefault("ai.recommend.systemPrompt", "")
	v.SetDefault("ai.recommend.systemPromptFile", "")

	// AI Configuration - Agent operation defaults
	v.SetDefault("ai.agent.provider", "gemini")
	v.SetDefault("ai.agent.model", "")
	v.SetDefault("ai.agent.timeout", 45*time.Second) // Per-cycle budget, not per-query
	v.SetDefault("ai.agent.maxRetries", 1)
	v.SetDefault("ai.agent.temperature", 0.2)
	v.SetDefault("ai.agent.systemPrompt", "")
	v.SetDefault("ai.agent.systemPromptFile", "")

	// AI Configuration - Embedding operation defaults
	v.SetDefault("ai.embedding.provider", "gemini")
	v.SetDefault("ai.embedding.model", "text-embedding-004")
	v.SetDefault("ai.embedding.timeout", 30*time.Second)
	v.SetDefault("ai.embedding.maxRetries", 3)

	// Circuit Breaker Configuration defaults for all operations
	v.SetDefault("ai.extract.circuitBreaker.enabled", true)
	v.SetDefault("ai.extract.circuitBreaker.maxRequests", 3)
	v.SetDefault("ai.extract.circuitBreaker.interval", 60*time.Second)
	v.SetDefault("ai.extract.circuitBreaker.timeout", 60*time.Second)
	v.SetDefault("ai.extract.circuitBreaker.minRequests", 3)
	v.SetDefault("ai.extract.circuitBreaker.failureThreshold", 0.6)

	v.SetDefault("ai.recommend.circuitBreaker.enabled", true)
	v.SetDefault("ai.recommend.circuitBreaker.maxRequests", 3)
	v.SetDefault("ai.recommend.circuitBreaker.interval", 60*time.Second)
	v.SetDefault("ai.recommend.circuitBreaker.timeout", 60*time.Second)
	v.SetDefault("ai.recommend.circuitBreaker.minRequests", 3)
	v.SetDefault("ai.recommend.circuitBreaker.failureThreshold", 0.6)

	v.SetDefault("ai.agent.circuitBreaker.enabled", true)
	v.SetDefault("ai.agent.circuitBreaker.maxRequests", 3)
	v.SetDefault("ai.agent.circuitBreaker.interval", 60*time.Second)
	v.SetDefault("ai.agent.circuitBreaker.timeout", 60*time.Second)
	v.SetDefault("ai.agent.circuitBreaker.minRequests", 3)
	v.SetDefault("ai.agent.circuitBreaker.failureThreshold", 0.6)

	v.SetDefault("ai.embedding.circuitBreaker.enabled", true)
	v.SetDefault("ai.embedding.circuitBreaker.maxRequests", 3)
	v.SetDefault("ai.embedding.circuitBreaker.interval", 60*time.Second)
	v.SetDefault("ai.embedding.circuitBreaker.timeout", 60*time.Second)
	v.SetDefault("ai.embedding.circuitBreaker.minRequests", 5)
	v.SetDefault("ai.embedding.circuitBreaker.failureThreshold", 0.6)

	// Pipeline Configuration
	v.SetDefault("pipeline.chunkSize", 1000)
	v.SetDefault("pipeline.chunkOverlap", 200)
	v.SetDefault("pipeline.topK", 5)
	v.SetDefault("pipeline.documentTTL", time.Duration(0)) // 0 keeps documents for the process lifetime

	// Agent Configuration
	v.SetDefault("agent.maxCycles", 10)

	// Catalogue Configuration
	v.SetDefault("catalogue.path", "")
	v.SetDefault("catalogue.watch", false)

	// Server Configuration
	v.SetDefault("server.host", "localhost")
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.readTimeout", 30*time.Second)
	v.SetDefault("server.writeTimeout", 120*time.Second) // Analysis responses wait on AI calls
	v.SetDefault("server.idleTimeout", 120*time.Second)
	// TLS Configuration defaults
	v.SetDefault("server.tls.mode", "disabled") // disabled, server
	v.SetDefault("server.tls.certFile", "")
	v.SetDefault("server.tls.keyFile", "")
	v.SetDefault("server.tls.minVersion", "1.2")
	// API Authentication defaults
	v.SetDefault("server.apiKeys", []string{})
	// Rate limiting defaults
	v.SetDefault("server.rateLimit.enabled", false)
	v.SetDefault("server.rateLimit.requestsPerMin", 60)
	v.SetDefault("server.rateLimit.burstCapacity", 10)
	v.SetDefault("server.rateLimit.byIP", true)
	v.SetDefault("server.rateLimit.byAPIKey", false)
	v.SetDefault("server.rateLimit.window", time.Minute)

	// App Configuration
	v.SetDefault("app.logLevel", "info")
	v.SetDefault("app.defaultFormat", "json")
	v.SetDefault("app.supportedFormats", []string{"json", "text", "markdown"})
	v.SetDefault("app.uploadDir", "uploads")
	v.SetDefault("app.maxFileSize", 10*1024*1024) // 10MB

	// Vault Configuration
	v.SetDefault("vault.enabled", false)
	v.SetDefault("vault.address", "")
	v.SetDefault("vault.token", "")
	v.SetDefault("vault.tokenFile", "")
	v.SetDefault("vault.namespace", "")
	v.SetDefault("vault.secrets.apiKeys", "")
	v.SetDefault("vault.secrets.geminiKey", "")

	// Observability Configuration
	v.SetDefault("observability.enabled", true)
	v.SetDefault("observability.serviceName", "cvlens")
	v.SetDefault("observability.serviceVersion", "")  // Will use app version if empty
	v.SetDefault("observability.serviceInstance", "") // Will be auto-generated if empty
	v.SetDefault("observability.consoleOutput", false)
	v.SetDefault("observability.sampleRate", 1.0)

	// Tracing Configuration
	v.SetDefault("observability.tracing.enabled", true)
	v.SetDefault("observability.tracing.sampleRate", 1.0)

	// Metrics Configuration
	v.SetDefault("observability.metrics.enabled", true)
	v.SetDefault("observability.metrics.collectionInterval", 15*time.Second)

	// Console Configuration
	v.SetDefault("observability.console.enabled", false)
	v.SetDefault("observability.console.prettyPrint", true)

	// Prometheus Configuration
	v.SetDefault("observability.prometheus.enabled", true)
	v.SetDefault("observability.prometheus.endpoint", "/metrics")
	v.SetDefault("observability.prometheus.port", "9090")

	// OTLP Configuration
	v.SetDefault("observability.otlp.enabled", false)
	v.SetDefault("observability.otlp.endpoint", "http://localhost:4318")
	v.SetDefault("observability.otlp.insecure", true)
	v.SetDefault("observability.otlp.headers", map[string]string{})

	// Health Check Configuration
	v.SetDefault("observability.healthCheck.timeout", 15*time.Second)
}
