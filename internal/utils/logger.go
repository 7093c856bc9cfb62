/*
 *  Copyright (c) 2025, WSO2 LLC. (http://www.wso2.org) All Rights Reserved.
 *
 *  Licensed under the Apache License, Version 2.0 (the "License");
 *  you may not use this file except in compliance with the License.
 *  You may obtain a copy of the License at
 *
 *  http://www.apache.org/licenses/LICENSE-2.0
 *
 *  Unless required by applicable law or agreed to in writing, software
 *  distributed under the License is distributed on an "AS IS" BASIS,
 *  WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 *  See the License for the specific language governing permissions and
 *  limitations under the License.
 *
 */

package utils

import (
	"strings"

	"github.com/sirupsen/logrus"
)

var logger = logrus.New()

// ConfigureLogger applies the configured log level and output format.
// Unknown values fall back to debug level / text format.
func ConfigureLogger(level, format string) {
	switch strings.ToUpper(level) {
	case "ERROR":
		logger.SetLevel(logrus.ErrorLevel)
	case "WARN", "WARNING":
		logger.SetLevel(logrus.WarnLevel)
	case "INFO":
		logger.SetLevel(logrus.InfoLevel)
	default:
		logger.SetLevel(logrus.DebugLevel)
	}
	if strings.EqualFold(format, "json") {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
}

// LogDebug logs a debug level message
func LogDebug(message string, args ...interface{}) {
	logger.Debugf(message, args...)
}

// LogInfo logs an info level message
func LogInfo(message string, args ...interface{}) {
	logger.Infof(message, args...)
}

// LogWarning logs a warning level message
func LogWarning(message string, args ...interface{}) {
	logger.Warnf(message, args...)
}

// LogError logs an error level message with the underlying error
func LogError(message string, err error) {
	if err != nil {
		logger.WithError(err).Error(message)
		return
	}
	logger.Error(message)
}

// LogErrorWithFields logs an error with structured context fields
func LogErrorWithFields(message string, err error, fields map[string]interface{}) {
	entry := logger.WithFields(logrus.Fields(fields))
	if err != nil {
		entry = entry.WithError(err)
	}
	entry.Error(message)
}
