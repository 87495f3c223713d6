/*
cleanupd - mail transfer agent queue-cleanup service.
Copyright (C) 2024 cleanupd contributors

This program is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

This program is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with this program.  If not, see <https://www.gnu.org/licenses/>.
*/

package config

import (
	"io"

	parser "github.com/qfile/cleanupd/framework/cfgparser"
)

// Node and NodeErr are re-exported from the cfgparser package so that
// config.Map's directive matchers can be written in terms of config.Node
// without every caller importing cfgparser directly.
type Node = parser.Node

var NodeErr = parser.NodeErr

// ReadTree parses a configuration file into the top-level list of
// directives, expanding snippets, macros, and imports along the way, and
// wraps them in a synthetic root Node usable directly as a Map's Block.
func ReadTree(r io.Reader, fileName string) (Node, error) {
	nodes, err := parser.Read(r, fileName)
	if err != nil {
		return Node{}, err
	}
	return Node{Name: "", Children: nodes, File: fileName}, nil
}
