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

import "fmt"

// ValidateNode validates a Node before it is queued for writing.
//
// Validation rules:
//   - UID must not be empty (it is the merge key)
//   - Kind must be a defined NodeKind
//
// NOT validated:
//   - Properties (an empty map is a valid stub vertex)
func ValidateNode(node *Node) error {
	if node == nil {
		return fmt.Errorf("%w: node is nil", ErrInvalidNode)
	}

	if node.UID == "" {
		return fmt.Errorf("%w: %w", ErrInvalidNode, ErrEmptyUID)
	}

	if !node.Kind.Valid() {
		return fmt.Errorf("%w: %w %d", ErrInvalidNode, ErrInvalidNodeKind, node.Kind)
	}

	return nil
}

// ValidateLink validates a Link before it is queued for writing.
//
// Validation rules:
//   - SourceUID and TargetUID must both be non-empty
func ValidateLink(link *Link) error {
	if link == nil {
		return fmt.Errorf("%w: link is nil", ErrInvalidLink)
	}

	if link.SourceUID == "" || link.TargetUID == "" {
		return fmt.Errorf("%w: %w", ErrInvalidLink, ErrEmptyEndpoint)
	}

	return nil
}

// ValidatePage validates a Page before parsing.
//
// Validation rules:
//   - Title must not be empty (it seeds the hierarchy stack and all uids)
//
// NOT validated:
//   - RawContent (an empty document parses to zero chunks)
func ValidatePage(page *Page) error {
	if page == nil {
		return fmt.Errorf("page is nil")
	}

	if page.Title == "" {
		return ErrEmptyTitle
	}

	return nil
}
