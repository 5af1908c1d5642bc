package config

// applyOperationDefaults applies global defaults to operation-specific configuration
func (c *Config) applyOperationDefaults(opCfg *OperationAIConfig) {
	if opCfg.Provider == "" {
		opCfg.Provider = c.AI.Provider
	}
	if opCfg.Model == "" {
		opCfg.Model = c.AI.Model
	}
	if opCfg.Timeout == nil {
		opCfg.Timeout = &c.AI.Timeout
	}
	if opCfg.APIKey == "" {
		opCfg.APIKey = c.AI.APIKey
	}
	if opCfg.MaxRetries == nil {
		opCfg.MaxRetries = &c.AI.MaxRetries
	}
	if opCfg.Temperature == nil {
		opCfg.Temperature = &c.AI.Temperature
	}
}

// GetExtractConfig returns the AI configuration for extraction with fallback to global config
func (c *Config) GetExtractConfig() OperationAIConfig {
	config := c.AI.Extract
	c.applyOperationDefaults(&config)
	return config
}

// GetRecommendConfig returns the AI configuration for recommendation with fallback to global config
func (c *Config) GetRecommendConfig() OperationAIConfig {
	config := c.AI.Recommend
	c.applyOperationDefaults(&config)
	return config
}

// GetAgentConfig returns the AI configuration for agent reasoning with fallback to global config
func (c *Config) GetAgentConfig() OperationAIConfig {
	config := c.AI.Agent
	c.applyOperationDefaults(&config)
	return config
}

// GetEmbeddingConfig returns the AI configuration for embedding with fallback to global config.
// The embedding model never falls back to the generation model.
func (c *Config) GetEmbeddingConfig() OperationAIConfig {
	config := c.AI.Embedding
	if config.Model == "" {
		config.Model = "text-embedding-004"
	}
	model := config.Model
	c.applyOperationDefaults(&config)
	config.Model = model
	return config
}
