/*
Copyright the VinDecode Authors. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package gateway

import "strings"

const DefaultBase = "https://ipfs.io/ipfs"

// URL returns the public address of cid on the gateway at base, DefaultBase when empty
func URL(base, cid string) string {
	base = strings.TrimRight(strings.TrimSpace(base), "/")
	if len(base) == 0 {
		base = DefaultBase
	}
	return base + "/" + cid
}
