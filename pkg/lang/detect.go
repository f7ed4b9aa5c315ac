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

package lang

// allScripts is the set considered when scoring each candidate language.
var allScripts = []Script{English, Devanagari, Bengali, Oriya, Tamil, Telugu, Kannada, Malayalam}

// Detect returns the primary language of text: the script with the highest
// fraction of recognized characters, if that fraction is at least 0.3,
// otherwise "en". Detect is deterministic and has no side effects.
func Detect(text string) Script {
	primary, _ := Distribution(text)
	return primary
}

// Distribution scores text against every known script and returns both the
// primary language (same rule as Detect) and the full per-script fraction
// breakdown, keyed by script tag. Unrecognized runes (punctuation, digits,
// whitespace) are counted toward the total but credited to no script.
func Distribution(text string) (Script, map[Script]float64) {
	if text == "" {
		return English, map[Script]float64{}
	}

	counts := make(map[Script]int, len(allScripts))
	total := 0
	for _, r := range text {
		total++
		for _, s := range allScripts {
			if InScript(r, s) {
				counts[s]++
			}
		}
	}
	if total == 0 {
		return English, map[Script]float64{}
	}

	dist := make(map[Script]float64, len(allScripts))
	best := English
	bestFraction := 0.0
	for _, s := range allScripts {
		fraction := float64(counts[s]) / float64(total)
		dist[s] = fraction
		if fraction > bestFraction {
			bestFraction = fraction
			best = s
		}
	}
	if bestFraction >= 0.3 {
		return best, dist
	}
	return English, dist
}
