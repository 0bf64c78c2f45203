package elastic_search

import (
	"github.com/ZilDuck/zilliqa-nft-exchange/internal/entity"
	"go.uber.org/zap"
)

// mergeRequests folds an update into a request still waiting in the buffer.
func mergeRequests(index string, cached Request, action RequestAction, e entity.Entity) entity.Entity {
	switch {
	case index == ListingIndex.Get():
		result := cached.Entity.(entity.Listing)
		update := e.(entity.Listing)

		if action == ListingSold || action == ListingCancel {
			result.State = update.State
			result.Buyer = update.Buyer
			result.UpdatedAt = update.UpdatedAt
		} else {
			result = update
		}
		return result

	case index == ExchangeActionIndex.Get():
		return e
	}

	zap.L().With(zap.String("index", index), zap.String("action", string(action))).Warn("ElasticSearch: No merge rule for index")
	return e
}
