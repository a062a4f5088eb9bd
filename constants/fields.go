package constants

// Field names for the fixed extraction schema. The order here is the order
// rules are evaluated in and the column order for exports.
const (
	FieldDated                 = "dated"
	FieldBidNumber             = "bid_number"
	FieldBeneficiary           = "beneficiary"
	FieldMinistry              = "ministry"
	FieldDepartment            = "department"
	FieldOrganisation          = "organisation"
	FieldOfficeName            = "office_name"
	FieldContractPeriod        = "contract_period"
	FieldItemCategory          = "item_category"
	FieldEstimatedBidValue     = "estimated_bid_value"
	FieldTotalQuantity         = "total_quantity"
	FieldBidEndDatetime        = "bid_end_datetime"
	FieldBidOpenDatetime       = "bid_open_datetime"
	FieldBidOfferValidityDays  = "bid_offer_validity_days"
	FieldSimilarCategory       = "similar_category"
	FieldMseExemption          = "mse_exemption"
	FieldEvaluationMethod      = "evaluation_method"
	FieldMiiPurchasePreference = "mii_purchase_preference"
	FieldMsePurchasePreference = "mse_purchase_preference"
	FieldDeliveryDays          = "delivery_days"
)

// FieldNames enumerates the full schema in evaluation order. Every extracted
// record carries exactly these keys.
var FieldNames = []string{
	FieldDated,
	FieldBidNumber,
	FieldBeneficiary,
	FieldMinistry,
	FieldDepartment,
	FieldOrganisation,
	FieldOfficeName,
	FieldContractPeriod,
	FieldItemCategory,
	FieldEstimatedBidValue,
	FieldTotalQuantity,
	FieldBidEndDatetime,
	FieldBidOpenDatetime,
	FieldBidOfferValidityDays,
	FieldSimilarCategory,
	FieldMseExemption,
	FieldEvaluationMethod,
	FieldMiiPurchasePreference,
	FieldMsePurchasePreference,
	FieldDeliveryDays,
}
