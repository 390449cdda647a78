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
	"io/ioutil"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogFileWriter_Rotate(t *testing.T) {
	dir, err := ioutil.TempDir("", "divlog")
	require.NoError(t, err)
	defer os.RemoveAll(dir)

	name := filepath.Join(dir, "rotate")
	writer := newLogFileWriter(name, 16, 2)
	require.NotNil(t, writer)

	for i := 0; i < 5; i++ {
		_, err := writer.Write([]byte("0123456789abcdefgh\n"))
		require.NoError(t, err)
	}
	// every write overflows the size, so only the last maxFiles indexes survive
	_, err = os.Stat(writer.indexName(0))
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(writer.indexName(writer.counter))
	assert.NoError(t, err)
}

func TestLogrusplus_JSON(t *testing.T) {
	dir, err := ioutil.TempDir("", "divlog")
	require.NoError(t, err)
	defer os.RemoveAll(dir)

	lrs := New()
	logger := lrs.Logger(filepath.Join(dir, "ledger"), MaxFileSize, DefaultMaxFiles, logrus.InfoLevel)
	assert.Equal(t, logger, lrs.Logger(filepath.Join(dir, "ledger"), MaxFileSize, DefaultMaxFiles, logrus.InfoLevel))

	logger.WithFields(logrus.Fields{"from": "zv01", "amount": "1749"}).Info("transfer")
	bs, err := ioutil.ReadFile(filepath.Join(dir, "ledger_0.log"))
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(bs), `"amount":"1749"`))
}
