package constants

// Public condenser API nodes, tried in order with round-robin failover.
var DefaultHiveNodes = []string{
	"https://api.hive.blog",
	"https://api.openhive.network",
	"https://anyx.io",
	"https://rpc.ecency.com",
	"https://techcoderx.com",
}

const DelegateVestingSharesOp = "delegate_vesting_shares"
