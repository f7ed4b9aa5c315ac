// Copyright 2025 ragforge authors
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

package extract

import (
	"fmt"

	"github.com/nguyenthenguyen/docx"
	"github.com/xuri/excelize/v2"
)

func extractDocx(path string) (string, error) {
	r, err := docx.ReadDocxFile(path)
	if err != nil {
		return "", fmt.Errorf("open docx: %w", err)
	}
	defer r.Close()
	return r.Editable().GetContent(), nil
}

// maxCellsPerSheet bounds the text pulled from any single worksheet, mirroring
// the guard used by the reference office-document parser this is grounded on.
const maxCellsPerSheet = 1000

func extractXlsx(path string) (string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return "", fmt.Errorf("open xlsx: %w", err)
	}
	defer f.Close()

	var out []byte
	for _, sheet := range f.GetSheetList() {
		rows, err := f.GetRows(sheet)
		if err != nil {
			continue
		}
		out = append(out, []byte(fmt.Sprintf("# %s\n", sheet))...)
		cells := 0
		for _, row := range rows {
			for _, cell := range row {
				if cells >= maxCellsPerSheet {
					break
				}
				out = append(out, []byte(cell+"\t")...)
				cells++
			}
			out = append(out, '\n')
			if cells >= maxCellsPerSheet {
				break
			}
		}
	}
	return string(out), nil
}
