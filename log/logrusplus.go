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
	"errors"
	"io"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

func removeFile(fileName string) error {
	_, e := os.Stat(fileName)
	if e == nil || os.IsExist(e) {
		return os.Remove(fileName)
	}
	return nil
}

// logFileWriter writes into <fileName>_N.log and moves on to the next index once
// the current file exceeds maxSize, keeping at most maxFiles files on disk
type logFileWriter struct {
	lock     sync.Mutex
	file     *os.File
	maxSize  int64
	maxFiles int
	fileName string
	counter  int
}

func newLogFileWriter(fileName string, maxSize int64, maxFiles int) *logFileWriter {
	writer := &logFileWriter{
		maxSize:  maxSize,
		maxFiles: maxFiles,
		fileName: fileName,
	}

	err := removeFile(writer.indexName(0))
	if err != nil {
		return nil
	}
	file, err := os.OpenFile(writer.indexName(0), os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil
	}
	writer.file = file

	return writer
}

func (p *logFileWriter) indexName(i int) string {
	return p.fileName + "_" + strconv.FormatInt(int64(i), 10) + ".log"
}

func (p *logFileWriter) Write(data []byte) (n int, e error) {
	if p == nil {
		return 0, errors.New("logFileWriter is nil")
	}
	p.lock.Lock()
	defer p.lock.Unlock()

	if p.file == nil {
		return 0, errors.New("file not opened")
	}
	n, e = p.file.Write(data)
	if e != nil {
		return n, e
	}
	fileSize, e := p.file.Seek(0, io.SeekEnd)
	if e != nil {
		return n, e
	}
	if fileSize > p.maxSize {
		e = p.rotate()
	}
	return n, e
}

func (p *logFileWriter) rotate() error {
	if e := p.file.Close(); e != nil {
		return e
	}
	p.counter++
	if e := removeFile(p.indexName(p.counter)); e != nil {
		return e
	}
	file, e := os.OpenFile(p.indexName(p.counter), os.O_CREATE|os.O_WRONLY, 0644)
	if e != nil {
		return e
	}
	p.file = file

	if p.counter >= p.maxFiles {
		return removeFile(p.indexName(p.counter - p.maxFiles))
	}
	return nil
}

type Logrusplus struct {
	lock    sync.Mutex
	loggers map[string]*logrus.Logger
}

func New() *Logrusplus {
	return &Logrusplus{
		loggers: make(map[string]*logrus.Logger),
	}
}

// Logger returns the json logger bound to fileName, creating it on first use.
// It falls back to stderr when the file can't be opened.
func (lrs *Logrusplus) Logger(fileName string, maxSize int64, maxFiles int, level logrus.Level) *logrus.Logger {
	lrs.lock.Lock()
	defer lrs.lock.Unlock()

	if logger, ok := lrs.loggers[fileName]; ok {
		return logger
	}
	logger := logrus.New()
	formatter := new(logrus.JSONFormatter)
	formatter.TimestampFormat = time.RFC3339Nano
	logger.Formatter = formatter

	fileWriter := newLogFileWriter(fileName, maxSize, maxFiles)
	if fileWriter != nil {
		logger.SetOutput(fileWriter)
	} else {
		logger.Info("Failed to log to file, using default stderr")
	}
	logger.SetLevel(level)
	lrs.loggers[fileName] = logger

	return logger
}
