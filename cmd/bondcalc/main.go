// bondcalc is a command-line bond calculator: given a bond's terms it
// prints the clean price, dirty price and accrued interest for a discount
// rate, or solves the yield to maturity implied by an observed clean
// price. Run without flags it reproduces the reference example
// (2% semiannual bond maturing 2028-06-01, settled 2020-05-12, discounted
// at 1.215%).
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/aristath/bondpricer/internal/modules/bonds"
)

const dateLayout = "2006-01-02"

func main() {
	settlementStr := flag.String("settlementdate", "2020-05-12", "Settlement date (YYYY-MM-DD)")
	maturityStr := flag.String("maturitydate", "2028-06-01", "Maturity date (YYYY-MM-DD)")
	coupon := flag.Float64("coupon", 0.02, "Annual coupon rate as a fraction (0.02 = 2%)")
	rate := flag.Float64("rate", 0.01215, "Discount rate as a fraction")
	cleanPrice := flag.Float64("cleanprice", 0.0, "Observed clean price; when set, solves for yield instead of pricing")
	frequency := flag.Int("frequency", 2, "Coupon payments per year")
	nominal := flag.Float64("nominal", 100.0, "Face value of the bond")

	flag.Parse()

	settlement, err := time.Parse(dateLayout, *settlementStr)
	if err != nil {
		fail("invalid settlement date: %v", err)
	}
	maturity, err := time.Parse(dateLayout, *maturityStr)
	if err != nil {
		fail("invalid maturity date: %v", err)
	}

	period, err := bonds.CouponPeriod(settlement, maturity, *frequency)
	if err != nil {
		fail("schedule: %v", err)
	}

	fmt.Printf("Bond Details:\n")
	fmt.Printf("\tSettlement Date: %s\n", settlement.Format(dateLayout))
	fmt.Printf("\tMaturity Date: %s\n", maturity.Format(dateLayout))
	fmt.Printf("\tCoupon Rate: %.4f%%\n", *coupon*100)
	fmt.Printf("\tFrequency: %d\n", *frequency)
	fmt.Printf("\tFace Value: %.3f\n", *nominal)
	fmt.Printf("\tPrevious Coupon Date: %s\n", period.Prior.Format(dateLayout))
	fmt.Printf("\tNext Coupon Date: %s\n", period.Next.Format(dateLayout))

	if *cleanPrice > 0 {
		ytm, err := bonds.YieldFromPrice(*cleanPrice, settlement, maturity, *coupon, *frequency, *nominal)
		if err != nil {
			fail("yield: %v", err)
		}
		fmt.Printf("\tClean Price: %.6f\n", *cleanPrice)
		fmt.Printf("\tYield to Maturity: %.6f%%\n", ytm*100)
		return
	}

	result, err := bonds.Value(settlement, maturity, *coupon, *rate, *frequency, *nominal)
	if err != nil {
		fail("valuation: %v", err)
	}

	fmt.Printf("\tDiscount Rate: %.4f%%\n", *rate*100)
	fmt.Printf("\tClean Price: %.6f\n", result.CleanPrice)
	fmt.Printf("\tDirty Price: %.6f\n", result.DirtyPrice)
	fmt.Printf("\tAccrued Interest: %.6f\n", result.AccruedInterest)

	// Sanity round-trip: the solved yield should recover the input rate.
	ytm, err := bonds.YieldFromPrice(result.CleanPrice, settlement, maturity, *coupon, *frequency, *nominal)
	if err != nil {
		fail("yield: %v", err)
	}
	fmt.Printf("\tImplied Yield to Maturity: %.6f%%\n", ytm*100)
}

func fail(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
	os.Exit(1)
}
