// Copyright 2026 The Paperdex Authors
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

package robot

import (
	"context"
	"strings"

	"github.com/paperdex/paperdex/pkg/catalog"
	"github.com/paperdex/paperdex/pkg/enhancement"
	"github.com/paperdex/paperdex/pkg/extract"
	"github.com/paperdex/paperdex/pkg/textclean"
)

// ExtractorRobotID names the full-text extraction robot.
const ExtractorRobotID = "pdf-extractor"

// ExtractorRobot produces FULL_TEXT artifacts: raw extraction, cleaning,
// and length bookkeeping.
type ExtractorRobot struct {
	extractor extract.Extractor
}

// NewExtractorRobot creates the extractor robot around any Extractor.
func NewExtractorRobot(extractor extract.Extractor) *ExtractorRobot {
	return &ExtractorRobot{extractor: extractor}
}

func (r *ExtractorRobot) RobotID() string        { return ExtractorRobotID }
func (r *ExtractorRobot) Type() enhancement.Type { return enhancement.TypeFullText }

// Handle extracts and cleans the document's text. Empty output at either
// stage is a failure, not a discard: a paper with no extractable text is
// worth an operator's attention.
func (r *ExtractorRobot) Handle(ctx context.Context, doc *catalog.Document) Outcome {
	raw, err := r.extractor.Extract(ctx, doc.FilePath)
	if err != nil {
		return Fail(err.Error())
	}
	if strings.TrimSpace(raw) == "" {
		return Fail("empty text extracted")
	}

	cleaned := textclean.Clean(raw)
	if cleaned == "" {
		return Fail("empty text after cleaning")
	}

	return Produced(map[string]any{
		"text":           cleaned,
		"raw_length":     len(raw),
		"cleaned_length": len(cleaned),
	})
}
