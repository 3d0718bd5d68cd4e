package domain

import "github.com/google/uuid"

// Well-known concept keys. These are fixed for every deployment; the schema
// bootstrap seeds them.

// Status concepts.
var (
	StatusNew       = uuid.MustParse("c34fcbf1-e0fe-4989-90fd-0dc49e1b9685")
	StatusActive    = uuid.MustParse("c8064cbd-fa06-4530-b430-1a52f1530c27")
	StatusCompleted = uuid.MustParse("afc33800-8225-4061-b168-bacc09cdbae3")
	StatusObsolete  = uuid.MustParse("bdef5f90-5497-4f26-956c-8f818cce2bd2")
	StatusNullified = uuid.MustParse("cd4aa3c4-02d5-4cc9-9088-ef8f31e321c5")
	// StatusPurged marks the tombstone version left behind by a bulk purge.
	StatusPurged = uuid.MustParse("39995c08-0a5c-4549-8ba7-d187f9b3c4fd")
)

// Entity class concepts.
var (
	ClassEntity       = uuid.MustParse("e29fcfad-ec5d-4e02-8420-1abb8f9d2134")
	ClassPerson       = uuid.MustParse("9de2a846-ddf2-4ebc-902e-84508c5089ea")
	ClassPatient      = uuid.MustParse("bacd9c6f-3fa9-481e-9636-37457962804d")
	ClassProvider     = uuid.MustParse("6b04fed8-c164-469c-910b-f824c2bda4f0")
	ClassPlace        = uuid.MustParse("21ab7873-8ef3-4d78-9c19-4582b3c40631")
	ClassOrganization = uuid.MustParse("7c08bd55-4d42-49cd-92f8-6388d6c4183f")
	ClassMaterial     = uuid.MustParse("d39073be-0f8f-440e-b8c8-7034cc138a95")
)

// Act class concepts.
var (
	ClassAct                      = uuid.MustParse("d874424e-c692-4fd8-b94e-642e1cbf83e9")
	ClassObservation              = uuid.MustParse("28d022c6-8a8b-47c4-9e6a-2bc67308739e")
	ClassSubstanceAdministration  = uuid.MustParse("932a3c7e-ad77-450a-8a1f-030fc2855450")
	ClassProcedure                = uuid.MustParse("8cc5ef0d-3911-4d99-937f-6cfdc2a27d55")
	ClassPatientEncounter         = uuid.MustParse("54b52119-1709-4098-8911-5df6d6c84140")
	ClassCondition                = uuid.MustParse("1987c53c-7ab8-4461-9ebc-0d428744a8c0")
)

// Act mood concepts.
var (
	MoodEventOccurrence = uuid.MustParse("eb96f8da-b620-4525-860f-9a4f0eedf96c")
	MoodIntent          = uuid.MustParse("099bcc5e-8e2f-4d50-b509-9f9d5bbeb58e")
	MoodPropose         = uuid.MustParse("acf7baf2-221f-4bc2-8116-ceb5165be04d")
)

// Entity relationship type concepts.
var (
	RelationshipMother        = uuid.MustParse("29ff64e5-b564-411a-92c7-6818c02a9e48")
	RelationshipNextOfKin     = uuid.MustParse("1ee4e74f-542d-4544-96f6-266a6247f274")
	RelationshipDedicatedSDL  = uuid.MustParse("455f1772-f580-47e8-86bd-b5ce25d351f9")
	RelationshipEmployee      = uuid.MustParse("b43c9513-1c1c-4ed0-92db-55a904c122e6")
	RelationshipDuplicateOf   = uuid.MustParse("2bbf068b-9121-4081-bf3c-e2accf7f7ff9")
	RelationshipReplaces      = uuid.MustParse("d1578637-e1cb-415e-b319-4011da033813")
	RelationshipOwnedEntity   = uuid.MustParse("117da15c-0864-4f00-a987-9b9854cba44e")
)

// Act participation role concepts.
var (
	ParticipationRecordTarget = uuid.MustParse("3f92dbee-a65e-434f-98ce-841feeb02e3f")
	ParticipationPerformer    = uuid.MustParse("fa5e70a4-a46e-4665-8a20-94d4d7b86fc8")
	ParticipationAuthor       = uuid.MustParse("f0cb3faf-435d-4704-9217-b884f757bc14")
	ParticipationLocation     = uuid.MustParse("61848557-d78d-40e5-954f-0b9c97307a04")
	ParticipationConsumable   = uuid.MustParse("a5cac7f7-e3b7-4dd8-872c-db0e7fcc2d84")
)

// Name and address use concepts.
var (
	NameUseOfficial  = uuid.MustParse("1ec9583a-b019-4baa-b856-b99caf368656")
	NameUseLegal     = uuid.MustParse("effe122d-8d30-491d-9ff8-a286d51a42df")
	NameUseMaiden    = uuid.MustParse("0674c1c8-963a-4658-aff9-8cdcd308fa68")
	AddressUseHome   = uuid.MustParse("493c3e9d-4f65-4e4d-9582-c9008f4f2eb4")
	AddressUseWork   = uuid.MustParse("eaa6f08e-bb8e-4457-9dc0-3a1555fadf5c")
)

// Name component type concepts.
var (
	ComponentGiven  = uuid.MustParse("2f64bde2-a696-4b0a-9690-b21ebd7e5092")
	ComponentFamily = uuid.MustParse("29b98455-ed61-49f8-a161-2d73363e1df0")
	ComponentPrefix = uuid.MustParse("a787187b-6be4-401e-8836-97fc000c5d16")
	ComponentSuffix = uuid.MustParse("064523df-bb03-4932-9323-cdf0cc9590ba")
)

// Address component type concepts.
var (
	ComponentStreetAddress = uuid.MustParse("f69dcfa8-df18-403b-9217-c59680bad99e")
	ComponentCity          = uuid.MustParse("05b85461-578b-4988-bca6-e3e94be9db76")
	ComponentState         = uuid.MustParse("8cf4b0b0-84e5-4122-85fe-6afa8240c218")
	ComponentCountry       = uuid.MustParse("48b2ffb3-07db-47ba-ad73-fc8fb8502471")
	ComponentPostalCode    = uuid.MustParse("78a47122-f9bf-450f-a93f-90a103c5f1e8")
)

// Security principals fixed at bootstrap.
var (
	// SystemUserKey is the internal system principal. It bypasses read-only
	// protection and owns background provenance.
	SystemUserKey = uuid.MustParse("fadca076-3690-4a6e-af9e-f1cd68e8c7e8")
	// AnonymousUserKey owns unauthenticated reads.
	AnonymousUserKey = uuid.MustParse("c96859f0-043c-4480-8dab-f69d6e86696c")
	// SystemProvenanceKey is the pre-seeded provenance row for SystemUserKey.
	SystemProvenanceKey = uuid.MustParse("12d72c2e-0697-4e57-9e0c-d46e2a50fb98")
)

// Extension and issue types.
var (
	// ExtensionDataQuality carries warning-severity detected issues persisted
	// alongside a record instead of blocking its write.
	ExtensionDataQuality = uuid.MustParse("48ed943a-2a4e-40c6-b4d8-b4a64b1eb671")

	IssueInvalidIdentifier     = uuid.MustParse("2dc27a13-38dd-4e2f-a35d-d95e4fe10f0c")
	IssueDuplicateIdentifier   = uuid.MustParse("56b2256e-e364-4e0f-a093-34f8cdad1b9e")
	IssueIdentifierNotInScope  = uuid.MustParse("a7b5333e-6b68-42d2-bcce-32e1ef2cb172")
	IssueUnauthorizedAssigner  = uuid.MustParse("4e25c5ae-1a75-4b7f-94ae-1a1be79a0e58")
	IssueDuplicateRelationship = uuid.MustParse("d9c29f07-2a5e-4f05-9a45-7a9d3dbcc1a6")
	IssueMixedProvenance       = uuid.MustParse("6a2d1f89-4d0c-47a4-9d3a-5cbbd12f73bd")
)
