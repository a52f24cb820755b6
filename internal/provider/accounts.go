package provider

// curatedAccountGroups partition the trusted-source allow-list into four
// query-sized groups (the search API caps query length). Group order:
// newsrooms, journalists/researchers, market desks, funds/analysts.
var curatedAccountGroups = [4][]string{
	{
		"Cointelegraph", "CoinDesk", "TheBlock__", "WuBlockchain", "Blockworks_",
		"DLNewsInfo", "WatcherGuru", "BitcoinMagazine", "decryptmedia", "solanafloor",
		"CryptoSlate", "AP_Crypto", "unusual_whales", "DeItaone", "Reuters",
		"business", "ForbesCrypto",
	},
	{
		"EleanorTerrett", "laurashin", "nikhileshde", "CasPiancey", "tier10k",
		"DegenSpartan", "nlw", "laurencepchen", "RyanSAdams", "TrustlessState",
		"sassal0x", "udiWertheimer", "ErikVoorhees", "aantonop", "VitalikButerin",
		"cz_binance", "brian_armstrong", "saylor",
	},
	{
		"glassnode", "santimentfeed", "CryptoQuant_com", "coinglass_com", "intotheblock",
		"MessariCrypto", "DefiLlama", "lookonchain", "spotonchain", "ArkhamIntel",
		"nansen_ai", "tokenterminal", "KaikoData", "skewdotcom", "CoinMetrics",
		"whale_alert", "DuneAnalytics",
	},
	{
		"100trillionUSD", "woonomic", "PlanB", "RaoulGMI", "CryptoHayes",
		"APompliano", "novogratz", "BarrySilbert", "cburniske", "TusharJain_",
		"KyleSamani", "zhusu", "DTAPCAP", "MustStopMurad", "CryptoDonAlt",
		"PentoshiEth", "JamesWynnReal", "CryptoCred",
	},
}

// CuratedAccounts flattens the group partition into the full allow-list.
func CuratedAccounts() []string {
	var all []string
	for _, group := range curatedAccountGroups {
		all = append(all, group...)
	}
	return all
}
