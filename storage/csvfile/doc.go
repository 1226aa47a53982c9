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


// Package csvfile stores the corpus in a single CSV file.
//
// The layout is the one the original respostas.csv used, with a
// numero_documento column added:
//
//	processo_sei,tipo_documento,numero_documento,autoria,texto_pergunta,texto_resposta,embedding_pergunta
//
// Columns are located by header name, so files without numero_documento (or
// without embeddings) still load. The embedding column holds a bracketed
// list of floats such as "[0.1, -0.2]". Rows without an embedding load as
// stale records.
//
// The file's modification time serves as the corpus revision. Save writes a
// temporary file in the same directory and renames it over the original.
package csvfile
