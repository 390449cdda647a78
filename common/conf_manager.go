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

package common

import (
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/diversify/divchain/log"
	ini "github.com/glacjay/goini"
)

type ConfManager interface {
	// GetString returns the value of key under section, or defaultValue if not configured
	GetString(section string, key string, defaultValue string) string
	GetBool(section string, key string, defaultValue bool) bool
	GetInt(section string, key string, defaultValue int) int

	// SetString writes the value and stores the whole file
	SetString(section string, key string, value string)

	Del(section string, key string)

	// GetSectionManager returns the manager of one section
	GetSectionManager(section string) SectionConfManager
}

type SectionConfManager interface {
	GetString(key string, defaultValue string) string
	GetBool(key string, defaultValue bool) bool
	GetInt(key string, defaultValue int) int

	SetString(key string, value string)

	Del(key string)
}

type ConfFileManager struct {
	path string
	dict ini.Dict
	lock sync.RWMutex
}

type SectionConfFileManager struct {
	section string
	cfm     ConfManager
}

// NewConfINIManager loads the ini file at path, creating an empty one if it does not exist
func NewConfINIManager(path string) (ConfManager, error) {
	cs := &ConfFileManager{
		path: path,
	}

	_, err := os.Stat(path)
	if err != nil && os.IsNotExist(err) {
		f, err := os.Create(path)
		if err != nil {
			return nil, fmt.Errorf("failed to init the config manager: %v", err)
		}
		f.Close()
	} else if err != nil {
		return nil, fmt.Errorf("failed to init the config manager: %v", err)
	}
	cs.dict = ini.MustLoad(path)

	return cs, nil
}

// MustNewConfINIManager is like NewConfINIManager but panics on io errors
func MustNewConfINIManager(path string) ConfManager {
	cm, err := NewConfINIManager(path)
	if err != nil {
		panic(err)
	}
	return cm
}

func (cs *ConfFileManager) GetSectionManager(section string) SectionConfManager {
	return &SectionConfFileManager{
		section: section,
		cfm:     cs,
	}
}

func (sfm *SectionConfFileManager) GetString(key string, defaultValue string) string {
	return sfm.cfm.GetString(sfm.section, key, defaultValue)
}

func (sfm *SectionConfFileManager) GetBool(key string, defaultValue bool) bool {
	return sfm.cfm.GetBool(sfm.section, key, defaultValue)
}

func (sfm *SectionConfFileManager) GetInt(key string, defaultValue int) int {
	return sfm.cfm.GetInt(sfm.section, key, defaultValue)
}

func (sfm *SectionConfFileManager) SetString(key string, value string) {
	sfm.cfm.SetString(sfm.section, key, value)
}

func (sfm *SectionConfFileManager) Del(key string) {
	sfm.cfm.Del(sfm.section, key)
}

func (cs *ConfFileManager) GetString(section string, key string, defaultValue string) string {
	cs.lock.RLock()
	defer cs.lock.RUnlock()

	if v, ok := cs.dict.GetString(strings.ToLower(section), strings.ToLower(key)); ok {
		return v
	}
	return defaultValue
}

func (cs *ConfFileManager) GetBool(section string, key string, defaultValue bool) bool {
	cs.lock.RLock()
	defer cs.lock.RUnlock()

	if v, ok := cs.dict.GetBool(strings.ToLower(section), strings.ToLower(key)); ok {
		return v
	}
	return defaultValue
}

func (cs *ConfFileManager) GetInt(section string, key string, defaultValue int) int {
	cs.lock.RLock()
	defer cs.lock.RUnlock()

	if v, ok := cs.dict.GetInt(strings.ToLower(section), strings.ToLower(key)); ok {
		return v
	}
	return defaultValue
}

func (cs *ConfFileManager) SetString(section string, key string, value string) {
	cs.update(func() {
		cs.dict.SetString(strings.ToLower(section), strings.ToLower(key), value)
	})
}

func (cs *ConfFileManager) Del(section string, key string) {
	cs.update(func() {
		cs.dict.Delete(strings.ToLower(section), strings.ToLower(key))
	})
}

func (cs *ConfFileManager) update(updator func()) {
	cs.lock.Lock()
	defer cs.lock.Unlock()

	updator()
	cs.store()
}

func (cs *ConfFileManager) store() {
	if err := ini.Write(cs.path, &cs.dict); err != nil {
		log.DefaultLogger.Errorf("store config %v: %v", cs.path, err)
	}
}
