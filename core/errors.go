// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package core

import "errors"

// Domain validation errors
var (
	// ErrInvalidNode indicates a Node failed validation.
	ErrInvalidNode = errors.New("invalid node")

	// ErrInvalidLink indicates a Link failed validation.
	ErrInvalidLink = errors.New("invalid link")

	// ErrEmptyUID indicates a node has no uid to merge on.
	ErrEmptyUID = errors.New("uid cannot be empty")

	// ErrInvalidNodeKind indicates an unknown NodeKind value.
	ErrInvalidNodeKind = errors.New("invalid node kind")

	// ErrEmptyEndpoint indicates a link with a missing source or target uid.
	ErrEmptyEndpoint = errors.New("link endpoint cannot be empty")

	// ErrEmptyTitle indicates a page without a title.
	ErrEmptyTitle = errors.New("page title cannot be empty")
)
