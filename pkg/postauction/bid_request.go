// Copyright (C) 2025, ADXYZ Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package postauction

import "github.com/prebid/openrtb/v20/openrtb2"

// findAdSpotIndex locates the impression within req whose ID matches
// adSpotID, mirroring the original bidRequest->findAdSpotIndex lookup.
// Returns -1 when the spot isn't present on the request.
func findAdSpotIndex(req *openrtb2.BidRequest, adSpotID AdSpotID) int {
	if req == nil {
		return -1
	}
	target := adSpotID.String()
	for i := range req.Imp {
		if req.Imp[i].ID == target {
			return i
		}
	}
	return -1
}
