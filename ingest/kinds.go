// Copyright 2025 Finsight Labs
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


package ingest

import (
	"fmt"
	"strconv"
	"time"

	"github.com/finsight/lendex/core"
)

// FilingKind maps regulatory filings into stored records.
// The description folds the title, collection, identifier, issue date and
// length into one sentence so the embedding captures all of them.
func FilingKind() Kind[core.Filing] {
	return Kind[core.Filing]{
		Name: "filing",
		NaturalID: func(f core.Filing) string {
			return f.PackageID
		},
		Describe: func(f core.Filing) string {
			return fmt.Sprintf("%s. %s filing %s, issued %s, %d pages.",
				f.Title, f.Collection, f.PackageID,
				f.DateIssued.Format("2006-01-02"), f.PageCount)
		},
		Date: func(f core.Filing) time.Time {
			return f.DateIssued
		},
		Metadata: func(f core.Filing) map[string]string {
			return map[string]string{
				"collection": f.Collection,
				"category":   f.Category,
				"pageCount":  strconv.Itoa(f.PageCount),
			}
		},
	}
}

// LenderKind maps mortgage lenders into stored records.
func LenderKind() Kind[core.Lender] {
	return Kind[core.Lender]{
		Name: "lender",
		NaturalID: func(l core.Lender) string {
			return l.LenderID
		},
		Describe: func(l core.Lender) string {
			return fmt.Sprintf("%s. Major lender with %d loans and $%.0f in volume.",
				l.Name, l.LoanCount, l.TotalVolume)
		},
		Date: func(l core.Lender) time.Time {
			return l.AsOfDate
		},
		Metadata: func(l core.Lender) map[string]string {
			return map[string]string{
				"state":       l.State,
				"loanCount":   strconv.Itoa(l.LoanCount),
				"totalVolume": strconv.FormatFloat(l.TotalVolume, 'f', 0, 64),
			}
		},
	}
}
