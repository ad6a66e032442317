// SPDX-License-Identifier: MIT
package transport

import applog "github.com/W47K3R9/SpectralDev/internal/log"

// LoggingTransport writes every frame to the debug log. Useful when
// bringing up a new consumer without a network listener in place.
type LoggingTransport struct{}

func NewLoggingTransport() *LoggingTransport {
	return &LoggingTransport{}
}

func (lt *LoggingTransport) Send(data any) error {
	applog.Debugf("LoggingTransport: %+v", data)
	return nil
}

func (lt *LoggingTransport) Close() error {
	return nil
}
