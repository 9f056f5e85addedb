package logging

import (
	"fmt"
	"io"
	"os"
)

// Service provides centralized logging functionality
type Service struct {
	manager Manager
	config  Config
}

// NewService creates a new logging service
func NewService(config Config) (*Service, error) {
	service := &Service{
		manager: NewManager(),
		config:  config,
	}
	
	if err := service.setupChannels(); err != nil {
		return nil, fmt.Errorf("failed to setup logging channels: %w", err)
	}
	
	return service, nil
}

// setupChannels sets up the logging channels based on configuration
func (s *Service) setupChannels() error {
	// Setup console channel
	consoleDriver := NewConsoleDriver(s.config.Console.Colorize)
	s.manager.AddChannel("console", consoleDriver, s.config.Console.Level)
	
	// Setup file channel if enabled
	if s.config.File.Enabled {
		fileDriver, err := NewFileDriver(s.config.File.Path, s.config.File.MaxSize, s.config.File.MaxFiles)
		if err != nil {
			return fmt.Errorf("failed to setup file logging: %w", err)
		}
		s.manager.AddChannel("file", fileDriver, s.config.File.Level)
	}
	
	// Setup JSON channel if enabled
	if s.config.JSON.Enabled {
		var writer io.Writer = os.Stdout
		if s.config.JSON.Path != "" {
			file, err := os.OpenFile(s.config.JSON.Path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
			if err != nil {
				return fmt.Errorf("failed to setup JSON logging: %w", err)
			}
			writer = file
		}
		jsonDriver := NewJSONDriver(writer)
		s.manager.AddChannel("json", jsonDriver, s.config.JSON.Level)
	}
	
	// Set default channel
	s.manager.SetDefaultChannel(s.config.DefaultChannel)
	return nil
}

// Manager returns the underlying log manager
func (s *Service) Manager() Manager {
	return s.manager
}

// Logger returns the default logger
func (s *Service) Logger() Logger {
	return s.manager.Default()
}

// Channel returns a specific logging channel
func (s *Service) Channel(name string) Logger {
	return s.manager.Channel(name)
}

// Close closes the logging service, closing every channel's driver.
func (s *Service) Close() error {
	return s.manager.Close()
}