// Copyright 2025 The Firekit Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

/*
Package firekit contains server-side building blocks for Firebase and
Firestore over their REST APIs.

The packages of interest are:

  - firestore: the Firestore value model, wire JSON, struct
    encoding/decoding, query builder and a thin HTTP client;
  - eventarc: decoding of Eventarc Firestore document event payloads;
  - fserrors: portable error codes for errors returned by this module;
  - gcp: HTTP client and token-source plumbing for Google Cloud.

This root package holds no code of its own.
*/
package firekit
