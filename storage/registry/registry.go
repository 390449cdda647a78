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

// Package registry records where each contract of a network was deployed
package registry

import (
	"encoding/json"
	"fmt"
	"io/ioutil"
	"os"
	"strings"
	"sync"

	"github.com/diversify/divchain/common"
	"github.com/tidwall/gjson"
)

// Entry is one deployed contract
type Entry struct {
	Address string            `json:"address"`
	Owner   string            `json:"owner"`
	Args    map[string]string `json:"args,omitempty"`
}

// Registry is a json file shaped {network: {contract: entry}}
type Registry struct {
	path string
	raw  string
	lock sync.Mutex
}

// Load reads the file at path. A missing file is an empty registry.
func Load(path string) (*Registry, error) {
	r := &Registry{path: path, raw: "{}"}
	bs, err := ioutil.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return r, nil
		}
		return nil, err
	}
	if len(strings.TrimSpace(string(bs))) == 0 {
		return r, nil
	}
	if !gjson.ValidBytes(bs) {
		return nil, fmt.Errorf("registry %v is not valid json", path)
	}
	r.raw = string(bs)
	return r, nil
}

func escape(s string) string {
	return strings.NewReplacer(".", `\.`, "*", `\*`, "?", `\?`).Replace(s)
}

// Get returns the entry of contract on network
func (r *Registry) Get(network, contract string) (*Entry, bool) {
	r.lock.Lock()
	defer r.lock.Unlock()

	res := gjson.Get(r.raw, escape(network)+"."+escape(contract))
	if !res.Exists() || !res.IsObject() {
		return nil, false
	}
	e := &Entry{
		Address: res.Get("address").String(),
		Owner:   res.Get("owner").String(),
	}
	if args := res.Get("args"); args.IsObject() {
		e.Args = make(map[string]string)
		args.ForEach(func(k, v gjson.Result) bool {
			e.Args[k.String()] = v.String()
			return true
		})
	}
	return e, true
}

// Address returns the deployed address of contract on network
func (r *Registry) Address(network, contract string) (common.Address, bool) {
	e, ok := r.Get(network, contract)
	if !ok || !common.ValidateAddress(e.Address) {
		return common.ZeroAddress, false
	}
	return common.StringToAddress(e.Address), true
}

// Contracts lists the contract names recorded for network
func (r *Registry) Contracts(network string) []string {
	r.lock.Lock()
	defer r.lock.Unlock()

	names := make([]string, 0)
	gjson.Get(r.raw, escape(network)).ForEach(func(k, _ gjson.Result) bool {
		names = append(names, k.String())
		return true
	})
	return names
}

// Save records the entry and rewrites the file
func (r *Registry) Save(network, contract string, entry *Entry) error {
	r.lock.Lock()
	defer r.lock.Unlock()

	all := make(map[string]map[string]*Entry)
	if err := json.Unmarshal([]byte(r.raw), &all); err != nil {
		return fmt.Errorf("decode registry: %v", err)
	}
	if all[network] == nil {
		all[network] = make(map[string]*Entry)
	}
	all[network][contract] = entry
	bs, err := json.MarshalIndent(all, "", "  ")
	if err != nil {
		return err
	}
	if err := ioutil.WriteFile(r.path, bs, 0644); err != nil {
		return err
	}
	r.raw = string(bs)
	return nil
}
