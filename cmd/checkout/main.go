// Command checkout assembles one order from a JSON request file and prints
// the priced result. It exercises the complete pricing pipeline against a
// live database, which makes it handy for acceptance checks of price and tax
// changes.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"os"

	"github.com/go-faster/errors"
	sdkapp "github.com/go-faster/sdk/app"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	appkg "github.com/mirsvobo/eshop/internal/app"
	"github.com/mirsvobo/eshop/internal/domain/order"
	"github.com/mirsvobo/eshop/internal/domain/product"
	"github.com/mirsvobo/eshop/internal/money"
)

type requestFile struct {
	CustomerID    int64  `json:"customerId"`
	Currency      string `json:"currency"`
	PaymentMethod string `json:"paymentMethod"`
	CouponCode    string `json:"couponCode"`
	ReverseCharge bool   `json:"reverseCharge"`
	Note          string `json:"note"`
	Lines         []struct {
		ProductID   int64 `json:"productId"`
		Quantity    int   `json:"quantity"`
		TaxRateID   int64 `json:"taxRateId"`
		Custom      bool  `json:"custom"`
		DesignID    int64 `json:"designId"`
		GlazeID     int64 `json:"glazeId"`
		RoofColorID int64 `json:"roofColorId"`

		Length decimal.Decimal `json:"length"`
		Width  decimal.Decimal `json:"width"`
		Height decimal.Decimal `json:"height"`

		RoofOverstep  string `json:"roofOverstep"`
		HasDivider    bool   `json:"hasDivider"`
		HasGutter     bool   `json:"hasGutter"`
		HasGardenShed bool   `json:"hasGardenShed"`
		Addons        []struct {
			AddonID  int64 `json:"addonId"`
			Quantity int   `json:"quantity"`
		} `json:"addons"`
	} `json:"lines"`
}

func main() {
	requestPath := flag.String("request", "request.json", "path to checkout request JSON")
	flag.Parse()

	sdkapp.Run(func(ctx context.Context, lg *zap.Logger, _ *sdkapp.Metrics) error {
		cfg, err := appkg.LoadConfig()
		if err != nil {
			return err
		}

		a, err := appkg.Build(ctx, lg, cfg)
		if err != nil {
			return err
		}
		defer a.Close()

		req, err := loadRequest(*requestPath)
		if err != nil {
			return err
		}

		o, err := a.Orders.Assemble(ctx, *req)
		if err != nil {
			return errors.Wrapf(err, "assemble (%s)", order.KindOf(err))
		}

		lg.Info("Order assembled",
			zap.Int64("code", o.Code),
			zap.String("total_gross", o.TotalGross.String()),
			zap.String("total_rounded", o.TotalRounded.String()),
			zap.String("payment_status", string(o.PaymentStatus)),
		)

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(o)
	})
}

func loadRequest(path string) (*order.Request, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read request file")
	}
	var rf requestFile
	if err := json.Unmarshal(data, &rf); err != nil {
		return nil, errors.Wrap(err, "parse request file")
	}

	cur, err := money.Parse(rf.Currency)
	if err != nil {
		return nil, err
	}

	req := &order.Request{
		CustomerID:    rf.CustomerID,
		Currency:      cur,
		PaymentMethod: order.PaymentMethod(rf.PaymentMethod),
		CouponCode:    rf.CouponCode,
		ReverseCharge: rf.ReverseCharge,
		Note:          rf.Note,
	}
	for _, l := range rf.Lines {
		line := order.LineRequest{
			ProductID:   l.ProductID,
			Quantity:    l.Quantity,
			TaxRateID:   l.TaxRateID,
			Custom:      l.Custom,
			DesignID:    l.DesignID,
			GlazeID:     l.GlazeID,
			RoofColorID: l.RoofColorID,
			Dimensions: product.Dimensions{
				Length: l.Length, Width: l.Width, Height: l.Height,
			},
			Options: product.Options{
				HasDivider:    l.HasDivider,
				HasGutter:     l.HasGutter,
				HasGardenShed: l.HasGardenShed,
			},
			RoofOverstep: l.RoofOverstep,
		}
		for _, a := range l.Addons {
			line.Addons = append(line.Addons, order.AddonRequest{
				AddonID: a.AddonID, Quantity: a.Quantity,
			})
		}
		req.Lines = append(req.Lines, line)
	}
	return req, nil
}
