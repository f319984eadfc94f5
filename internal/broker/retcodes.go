package broker

import "fmt"

// MetaTrader 5 trade server return codes
const (
	RetcodeRequote           = 10004
	RetcodeReject            = 10006
	RetcodeCancel            = 10007
	RetcodePlaced            = 10008
	RetcodeDone              = 10009
	RetcodeDonePartial       = 10010
	RetcodeError             = 10011
	RetcodeTimeout           = 10012
	RetcodeInvalid           = 10013
	RetcodeInvalidVolume     = 10014
	RetcodeInvalidPrice      = 10015
	RetcodeInvalidStops      = 10016
	RetcodeTradeDisabled     = 10017
	RetcodeMarketClosed      = 10018
	RetcodeNoMoney           = 10019
	RetcodePriceChanged      = 10020
	RetcodePriceOff          = 10021
	RetcodeInvalidExpiration = 10022
	RetcodeOrderChanged      = 10023
	RetcodeTooManyRequests   = 10024
	RetcodeNoChanges         = 10025
	RetcodeServerDisablesAT  = 10026
	RetcodeClientDisablesAT  = 10027
	RetcodeLocked            = 10028
	RetcodeFrozen            = 10029
	RetcodeInvalidFill       = 10030
)

var retcodeDescriptions = map[int]string{
	RetcodeRequote:           "Requote",
	RetcodeReject:            "Request rejected",
	RetcodeCancel:            "Request canceled by trader",
	RetcodePlaced:            "Order placed",
	RetcodeDone:              "Request completed",
	RetcodeDonePartial:       "Only part of the request was completed",
	RetcodeError:             "Request processing error",
	RetcodeTimeout:           "Request canceled by timeout",
	RetcodeInvalid:           "Invalid request",
	RetcodeInvalidVolume:     "Invalid volume in the request",
	RetcodeInvalidPrice:      "Invalid price in the request",
	RetcodeInvalidStops:      "Invalid stops in the request",
	RetcodeTradeDisabled:     "Trade is disabled",
	RetcodeMarketClosed:      "Market is closed",
	RetcodeNoMoney:           "There is not enough money to complete the request",
	RetcodePriceChanged:      "Prices changed",
	RetcodePriceOff:          "There are no quotes to process the request",
	RetcodeInvalidExpiration: "Invalid order expiration date",
	RetcodeOrderChanged:      "Order state changed",
	RetcodeTooManyRequests:   "Too frequent requests",
	RetcodeNoChanges:         "No changes in request",
	RetcodeServerDisablesAT:  "Autotrading disabled by server",
	RetcodeClientDisablesAT:  "Autotrading disabled by client terminal",
	RetcodeLocked:            "Request locked for processing",
	RetcodeFrozen:            "Order or position frozen",
	RetcodeInvalidFill:       "Invalid order filling type",
}

// RetcodeDescription returns a human-readable description of an MT5
// trade server return code
func RetcodeDescription(retcode int) string {
	if desc, ok := retcodeDescriptions[retcode]; ok {
		return desc
	}
	return fmt.Sprintf("Unknown retcode: %d", retcode)
}
