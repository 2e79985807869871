// Copyright 2025 Arcade Team
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package http

import "net/http"

var (
	Failed                        = failed(500, "Request failed")
	RequestParameterParsingFailed = failed(5001, "Request parameter parsing failed")

	// Unauthorized 401
	Unauthorized           = failed(4401, "Unauthorized")
	AuthorizationIncorrect = failed(4403, "The authorization format in the request header is incorrect")
	InvalidToken           = failed(4405, "Invalid token")
	TokenBeEmpty           = failed(4406, "Token cannot be empty")
	TokenExpired           = failed(4407, "Token is expired")

	// BadRequest 400
	BadRequest      = failed(4000, "Bad request")
	NotFound        = failed(4040, "Not found")
	PayloadTooLarge = failed(4130, "Payload too large")

	// Forbidden 403
	Forbidden        = failed(4030, "Forbidden")
	PermissionDenied = failed(4031, "Permission denied")

	Conflict   = failed(4090, "Conflict")
	Ineligible = failed(4220, "Module is not eligible for installation")

	InternalError = failed(5000, "Internal error, please contact the administrator")
)

var (
	Success = success(200, "Request Success")
)

func failed(code int, msg string) *Response {
	return &Response{
		Code: code,
		Msg:  msg,
	}
}

func success(code int, msg string) *Response {
	return &Response{
		Code: code,
		Msg:  msg,
	}
}

// StatusOf maps a business code onto its HTTP status. Four-digit codes
// carry the status in their leading three digits, 44xx codes are 401.
func StatusOf(code int) int {
	switch {
	case code >= 4400 && code < 4500:
		return http.StatusUnauthorized
	case code >= 1000:
		status := code / 10
		if http.StatusText(status) != "" {
			return status
		}
		return http.StatusInternalServerError
	case http.StatusText(code) != "":
		return code
	default:
		return http.StatusInternalServerError
	}
}
