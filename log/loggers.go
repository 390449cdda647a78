//   Copyright (C) 2018 ZVChain
//
//   This program is free software: you can redistribute it and/or modify
//   it under the terms of the GNU General Public License as published by
//   the Free Software Foundation, either version 3 of the License, or
//   (at your option) any later version.
//
//   This program is distributed in the hope that it will be useful,
//   but WITHOUT ANY WARRANTY; without even the implied warranty of
//   MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
//   GNU General Public License for more details.
//
//   You should have received a copy of the GNU General Public License
//   along with this program.  If not, see <https://www.gnu.org/licenses/>.

package log

import (
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
)

const (
	MaxFileSize     = 1024 * 1024 * 20
	DefaultMaxFiles = 2
	Level           = logrus.InfoLevel
)

var logrusplus *Logrusplus

// Every logger writes to stderr until Init redirects it to its own file
var (
	DefaultLogger = newStdLogger()
	CoreLogger    = newStdLogger()
	LedgerLogger  = newStdLogger()
	VaultLogger   = newStdLogger()
	SaleLogger    = newStdLogger()
	StakingLogger = newStdLogger()
	StorageLogger = newStdLogger()
)

func newStdLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(os.Stderr)
	logger.SetLevel(Level)
	return logger
}

// Init switches all loggers to json files under logsDir
func Init(logsDir string) error {
	if err := os.MkdirAll(logsDir, 0755); err != nil {
		return err
	}
	logrusplus = New()

	DefaultLogger = logrusplus.Logger(filepath.Join(logsDir, "default"), MaxFileSize, DefaultMaxFiles, Level)
	CoreLogger = logrusplus.Logger(filepath.Join(logsDir, "core"), MaxFileSize, DefaultMaxFiles, Level)
	LedgerLogger = logrusplus.Logger(filepath.Join(logsDir, "ledger"), MaxFileSize, DefaultMaxFiles, Level)
	VaultLogger = logrusplus.Logger(filepath.Join(logsDir, "vault"), MaxFileSize, DefaultMaxFiles, Level)
	SaleLogger = logrusplus.Logger(filepath.Join(logsDir, "seedsale"), MaxFileSize, DefaultMaxFiles, Level)
	StakingLogger = logrusplus.Logger(filepath.Join(logsDir, "staking"), MaxFileSize, DefaultMaxFiles, Level)
	StorageLogger = logrusplus.Logger(filepath.Join(logsDir, "storage"), MaxFileSize, DefaultMaxFiles, Level)
	return nil
}

// SetLevel changes the level of every logger
func SetLevel(level logrus.Level) {
	for _, l := range []*logrus.Logger{DefaultLogger, CoreLogger, LedgerLogger, VaultLogger, SaleLogger, StakingLogger, StorageLogger} {
		l.SetLevel(level)
	}
}
